// Package display shows gateway status on a small text screen:
// one header line (battery) and a few rolling status lines.
package display

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/juju/errors"
	"github.com/paulrosania/go-charset/charset"
	_ "github.com/paulrosania/go-charset/data"
)

const (
	MaxWidth     = 40
	DefaultLines = 4
	DefaultWidth = 21 // 128px OLED with 6px font
)

var spaceBytes = bytes.Repeat([]byte{' '}, MaxWidth)

type Devicer interface {
	Clear()
	WriteLine(y int, b []byte)
}

type Config struct {
	Codepage string
	Lines    int
	Width    int
}

type TextDisplay struct {
	mu    sync.Mutex
	dev   Devicer
	tr    charset.Translator
	width int
	max   int
	state State
}

type State struct {
	Header []byte
	Lines  [][]byte
}

func (s State) Copy() State {
	c := State{
		Header: append([]byte(nil), s.Header...),
		Lines:  make([][]byte, len(s.Lines)),
	}
	for i, l := range s.Lines {
		c.Lines[i] = append([]byte(nil), l...)
	}
	return c
}

func (s State) String() string {
	var buf bytes.Buffer
	buf.Write(s.Header)
	for _, l := range s.Lines {
		buf.WriteByte('\n')
		buf.Write(l)
	}
	return buf.String()
}

func NewTextDisplay(dev Devicer, opt Config) (*TextDisplay, error) {
	if dev == nil {
		return nil, errors.NotValidf("display device=nil")
	}
	self := &TextDisplay{
		dev:   dev,
		width: opt.Width,
		max:   opt.Lines,
	}
	if self.width <= 0 || self.width > MaxWidth {
		self.width = DefaultWidth
	}
	if self.max <= 0 {
		self.max = DefaultLines
	}
	if opt.Codepage != "" {
		tr, err := charset.TranslatorTo(opt.Codepage)
		if err != nil {
			return nil, errors.Annotatef(err, "display codepage=%s", opt.Codepage)
		}
		self.tr = tr
	}
	return self, nil
}

// SetHeader replaces first line.
func (self *TextDisplay) SetHeader(s string) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.state.Header = self.translate(s)
	self.flush()
}

// AddLine appends status line, oldest line scrolls out.
func (self *TextDisplay) AddLine(s string) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.state.Lines = append(self.state.Lines, self.translate(s))
	if extra := len(self.state.Lines) - self.max; extra > 0 {
		self.state.Lines = append(self.state.Lines[:0], self.state.Lines[extra:]...)
	}
	self.flush()
}

func (self *TextDisplay) Clear() {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.state = State{}
	self.dev.Clear()
}

func (self *TextDisplay) State() State {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state.Copy()
}

func (self *TextDisplay) translate(s string) []byte {
	result := []byte(s)
	if self.tr != nil {
		_, tb, err := self.tr.Translate(result, true)
		if err == nil {
			// translator reuses single internal buffer, make a copy
			result = append([]byte(nil), tb...)
		}
	}
	if len(result) > self.width {
		result = result[:self.width]
	}
	return result
}

func (self *TextDisplay) flush() {
	self.dev.WriteLine(0, PadSpace(self.state.Header, self.width))
	for i := 0; i < self.max; i++ {
		var l []byte
		if i < len(self.state.Lines) {
			l = self.state.Lines[i]
		}
		self.dev.WriteLine(i+1, PadSpace(l, self.width))
	}
}

// PadSpace returns b when len>=width, otherwise pads with spaces.
func PadSpace(b []byte, width int) []byte {
	l := len(b)
	if l >= width {
		return b
	}
	buf := make([]byte, 0, width)
	return append(append(buf, b...), spaceBytes[:width-l]...)
}

// WriterDevice prints changed lines, e.g. to stderr on a headless gateway.
type WriterDevice struct {
	W    io.Writer
	last map[int]string
}

func (self *WriterDevice) Clear() { self.last = nil }

func (self *WriterDevice) WriteLine(y int, b []byte) {
	s := string(bytes.TrimRight(b, " "))
	if self.last == nil {
		self.last = make(map[int]string)
	}
	if prev, ok := self.last[y]; ok && prev == s {
		return
	}
	self.last[y] = s
	if s != "" {
		fmt.Fprintf(self.W, "display[%d] %s\n", y, s)
	}
}

type MockDevicer struct {
	mu     sync.Mutex
	Screen map[int]string
	Clears int
}

func (self *MockDevicer) Clear() {
	self.mu.Lock()
	self.Screen = nil
	self.Clears++
	self.mu.Unlock()
}

func (self *MockDevicer) WriteLine(y int, b []byte) {
	self.mu.Lock()
	if self.Screen == nil {
		self.Screen = make(map[int]string)
	}
	self.Screen[y] = string(b)
	self.mu.Unlock()
}

func (self *MockDevicer) Line(y int) string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.Screen[y]
}
