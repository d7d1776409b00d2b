package lpp

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is an insertion-ordered JSON object.
// Setting an existing key replaces the value and keeps the original position.
type Document struct {
	keys   []string
	values map[string]interface{}
}

func NewDocument() *Document {
	return &Document{values: make(map[string]interface{})}
}

func (self *Document) Set(key string, value interface{}) {
	if self.values == nil {
		self.values = make(map[string]interface{})
	}
	if _, ok := self.values[key]; !ok {
		self.keys = append(self.keys, key)
	}
	self.values[key] = value
}

func (self *Document) Get(key string) (interface{}, bool) {
	if self == nil {
		return nil, false
	}
	v, ok := self.values[key]
	return v, ok
}

// Float returns numeric value of key as float64.
func (self *Document) Float(key string) (float64, error) {
	v, ok := self.Get(key)
	if !ok {
		return 0, fmt.Errorf("field %q missing", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case uint32:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	}
	return 0, fmt.Errorf("field %q has non-numeric type %T", key, v)
}

// Sub returns nested document of key, nil if absent or not nested.
func (self *Document) Sub(key string) *Document {
	v, _ := self.Get(key)
	sub, _ := v.(*Document)
	return sub
}

func (self *Document) Keys() []string {
	if self == nil {
		return nil
	}
	return append([]string(nil), self.keys...)
}

func (self *Document) Len() int {
	if self == nil {
		return 0
	}
	return len(self.keys)
}

// Map converts document into plain nested maps, for callers and tests
// that do not care about key order.
func (self *Document) Map() map[string]interface{} {
	m := make(map[string]interface{}, self.Len())
	if self == nil {
		return m
	}
	for _, k := range self.keys {
		v := self.values[k]
		if sub, ok := v.(*Document); ok {
			v = sub.Map()
		}
		m[k] = v
	}
	return m
}

func (self *Document) MarshalJSON() ([]byte, error) {
	if self == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range self.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(self.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (self *Document) String() string {
	b, err := self.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<document error=%v>", err)
	}
	return string(b)
}
