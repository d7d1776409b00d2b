// Package lpp decodes Cayenne LPP style telemetry: a stream of
// [channel][type][payload...] records, payload width defined by type.
package lpp

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/temoto/lppgw/log2"
)

const (
	headerLen = 2

	// ErrorKey and ErrorInvalidId are set in the document when a record has unknown type.
	ErrorKey       = "error"
	ErrorInvalidId = "Invalid LPP ID"
	NodeIdKey      = "node_id"
)

var (
	ErrUnknownType = errors.New("lpp: unknown type")
	ErrTruncated   = errors.New("lpp: truncated buffer")
	ErrTooLong     = errors.New("lpp: buffer too long")
)

type UnknownTypeError struct {
	Offset  int
	Channel uint8
	Code    uint8
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("lpp: unknown type=%d channel=%d offset=%d", e.Code, e.Channel, e.Offset)
}
func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

type TruncatedError struct {
	Offset int
	Need   int
	Have   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("lpp: truncated buffer offset=%d need=%d have=%d", e.Offset, e.Need, e.Have)
}
func (e *TruncatedError) Unwrap() error { return ErrTruncated }

// Record locates one record inside a buffer.
// Offset points at the channel byte, Len is payload length.
type Record struct {
	Channel uint8
	Code    uint8
	Offset  int
	Len     int
}

func (r Record) Payload(buf []byte) []byte {
	start := r.Offset + headerLen
	return buf[start : start+r.Len]
}

// Decoder holds no state between calls, zero value is ready to use.
// Log is optional.
type Decoder struct {
	Log *log2.Log
}

// Decode is shortcut for Decoder{}.Decode(buf).
func Decode(buf []byte) (*Document, error) {
	var d Decoder
	return d.Decode(buf)
}

func (self Decoder) Decode(buf []byte) (*Document, error) {
	if len(buf) > math.MaxUint16 {
		return NewDocument(), fmt.Errorf("%w len=%d max=%d", ErrTooLong, len(buf), math.MaxUint16)
	}
	return self.DecodeLen(buf, uint16(len(buf)))
}

// DecodeLen decodes first length bytes of buf.
// On error the partially filled document is returned along with the error.
// Unknown type adds ErrorKey field to the document and stops decoding.
func (self Decoder) DecodeLen(buf []byte, length uint16) (*Document, error) {
	doc := NewDocument()
	w := walker{buf: buf, end: int(length)}
	for w.more() {
		rec, desc, err := w.next()
		if err != nil {
			var ute *UnknownTypeError
			if errors.As(err, &ute) {
				self.Log.Debugf("lpp unknown sensor type=%d channel=%d offset=%d", ute.Code, ute.Channel, ute.Offset)
				doc.Set(ErrorKey, ErrorInvalidId)
			} else {
				self.Log.Debugf("lpp %v", err)
			}
			return doc, err
		}
		key, value := decodeRecord(desc, rec.Channel, rec.Payload(buf))
		doc.Set(key, value)
		self.Log.Debugf("lpp added %s=%v", key, value)
	}
	return doc, nil
}

// Split walks buf and returns record boundaries without decoding values.
func Split(buf []byte) ([]Record, error) {
	w := walker{buf: buf, end: len(buf)}
	rs := make([]Record, 0, len(buf)/4)
	for w.more() {
		rec, _, err := w.next()
		if err != nil {
			return rs, err
		}
		rs = append(rs, rec)
	}
	return rs, nil
}

type walker struct {
	buf    []byte
	end    int
	cursor int
}

func (self *walker) more() bool { return self.cursor < self.end }

func (self *walker) avail() int {
	n := self.end
	if n > len(self.buf) {
		n = len(self.buf)
	}
	return n - self.cursor
}

func (self *walker) next() (Record, TypeDescriptor, error) {
	offset := self.cursor
	if have := self.avail(); have < headerLen {
		return Record{}, TypeDescriptor{}, &TruncatedError{Offset: offset, Need: headerLen, Have: have}
	}
	rec := Record{
		Channel: self.buf[offset],
		Code:    self.buf[offset+1],
		Offset:  offset,
	}
	desc, ok := Lookup(rec.Code)
	if !ok {
		return rec, desc, &UnknownTypeError{Offset: offset, Channel: rec.Channel, Code: rec.Code}
	}
	rec.Len = desc.PayloadLen()
	need := headerLen + rec.Len
	if have := self.avail(); have < need {
		return rec, desc, &TruncatedError{Offset: offset, Need: need, Have: have}
	}
	self.cursor += need
	return rec, desc, nil
}

// payload length is checked by caller
func decodeRecord(d TypeDescriptor, channel uint8, p []byte) (string, interface{}) {
	key := d.Name + "_" + strconv.Itoa(int(channel))
	div := float64(d.Divisor)
	w := int(d.Width)

	switch d.Shape {
	case ShapeVector3:
		sub := NewDocument()
		sub.Set("X", float64(beInt(p[0:w]))/div)
		sub.Set("Y", float64(beInt(p[w:2*w]))/div)
		sub.Set("Z", float64(beInt(p[2*w:3*w]))/div)
		return key, sub

	case ShapeGeoPosition2D, ShapeGeoPosition3D:
		sub := NewDocument()
		sub.Set("Lat", float64(beInt(p[0:w]))/div)
		sub.Set("Lng", float64(beInt(p[w:2*w]))/div)
		sub.Set("Alt", float64(beInt(p[2*w:2*w+gpsAltWidth]))/gpsAltDivisor)
		return key, sub

	case ShapeColor3:
		sub := NewDocument()
		sub.Set("Red", uint32(beUint(p[0:w])))
		sub.Set("Green", uint32(beUint(p[w:2*w])))
		sub.Set("Blue", uint32(beUint(p[2*w:3*w])))
		return key, sub

	case ShapeNodeId:
		return NodeIdKey, uint32(beUint(p[:w]))
	}

	return key, Round2(float64(beInt(p[:w])) / div)
}

// Round2 is f formatted with 2 decimal places and parsed back.
func Round2(f float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	if err != nil {
		// FormatFloat output of a finite value always parses
		panic("code error Round2 f=" + strconv.FormatFloat(f, 'g', -1, 64))
	}
	return r
}

// big-endian signed, sign-extended from most significant byte, len(b)<=8
func beInt(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	var v int64
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	shift := uint(64 - 8*len(b))
	return v << shift >> shift
}

func beUint(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
