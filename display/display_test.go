package display

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolling(t *testing.T) {
	t.Parallel()

	dev := new(MockDevicer)
	d, err := NewTextDisplay(dev, Config{Width: 12, Lines: 2})
	require.NoError(t, err)
	d.SetHeader("P2P GW B 4.10V")
	d.AddLine("Node POST sent")
	d.AddLine("two")
	d.AddLine("three")
	assert.Equal(t, "P2P GW B 4.1\ntwo\nthree", d.State().String())
	st := d.State()
	assert.Equal(t, "P2P GW B 4.1", string(st.Header))
	require.Len(t, st.Lines, 2)
	assert.Equal(t, "two", string(st.Lines[0]))
	assert.Equal(t, "three", string(st.Lines[1]))
	assert.Equal(t, "two         ", dev.Line(1))
	assert.Equal(t, "three       ", dev.Line(2))

	d.Clear()
	assert.Equal(t, 1, dev.Clears)
	assert.Empty(t, d.State().Lines)
}

func TestPadSpace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte("ab  "), PadSpace([]byte("ab"), 4))
	assert.Equal(t, []byte("abcd"), PadSpace([]byte("abcd"), 2))
	assert.Equal(t, []byte("   "), PadSpace(nil, 3))
}

func TestWriterDevice(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d, err := NewTextDisplay(&WriterDevice{W: &buf}, Config{Width: 20, Lines: 1})
	require.NoError(t, err)
	d.SetHeader("hdr")
	d.AddLine("ok")
	d.AddLine("ok")
	assert.Equal(t, "display[0] hdr\ndisplay[1] ok\n", buf.String())
}

func TestNilDevice(t *testing.T) {
	t.Parallel()

	_, err := NewTextDisplay(nil, Config{})
	assert.Error(t, err)
}
