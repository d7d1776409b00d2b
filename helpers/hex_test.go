package helpers

import (
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		expect    []byte
		expectErr bool
	}
	cases := []Case{
		{"empty", "", []byte{}, false},
		{"plain", "0167", []byte{0x01, 0x67}, false},
		{"separators", " 01:67-00_c8|", []byte{0x01, 0x67, 0x00, 0xc8}, false},
		{"prefix", "0xFF", []byte{0xff}, false},
		{"odd", "ABC", nil, true},
		{"garbage", "zz", nil, true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			b, err := ParseHex(c.input)
			if c.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect, b)
		})
	}
}

func TestHexSpaced(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", HexSpaced(nil))
	assert.Equal(t, "01 67 00 C8", HexSpaced([]byte{1, 0x67, 0, 0xc8}))
}

func TestFoldErrors(t *testing.T) {
	t.Parallel()

	assert.NoError(t, FoldErrors(nil))
	assert.NoError(t, FoldErrors([]error{nil, nil}))
	e1 := errors.New("one")
	assert.Equal(t, e1, FoldErrors([]error{nil, e1}))
	err := FoldErrors([]error{e1, errors.New("100% two")})
	assert.Equal(t, "one\n100% two", err.Error())
}

func TestIntSecondDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5*time.Second, IntSecondDefault(0, 5*time.Second))
	assert.Equal(t, 3*time.Second, IntSecondDefault(3, 5*time.Second))
}
