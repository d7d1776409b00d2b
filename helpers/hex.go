package helpers

import (
	"encoding/hex"
	"strings"

	"github.com/juju/errors"
)

// separators commonly found in pasted dumps: "01 67:00-c8|"
const hexSeparators = " \t\r\n:-_|"

// ParseHex decodes hex ignoring separators.
func ParseHex(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(hexSeparators, r) {
			return -1
		}
		return r
	}, s)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	if len(clean)%2 != 0 {
		return nil, errors.NotValidf("hex odd length=%d input='%s'", len(clean), s)
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, errors.Annotatef(err, "hex input='%s'", s)
	}
	return b, nil
}

func MustHex(s string) []byte {
	b, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

// HexSpaced formats "01 67 00 C8", like serial debug dumps.
func HexSpaced(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for i, x := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{x})))
	}
	return sb.String()
}
