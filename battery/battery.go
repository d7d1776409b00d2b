// Package battery reads supply voltage for diagnostic display only.
package battery

import (
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

type Reader interface {
	ReadMillivolts() (float64, error)
}

// Average takes one reading, then smooths n more: b = (b + next) / 2.
func Average(r Reader, n int) (float64, error) {
	b, err := r.ReadMillivolts()
	if err != nil {
		return 0, errors.Trace(err)
	}
	for i := 0; i < n; i++ {
		next, err := r.ReadMillivolts()
		if err != nil {
			return 0, errors.Trace(err)
		}
		b = (b + next) / 2
	}
	return b, nil
}

// SysfsReader reads power_supply voltage_now (microvolts).
type SysfsReader struct {
	Path string
}

func (self SysfsReader) ReadMillivolts() (float64, error) {
	b, err := os.ReadFile(self.Path)
	if err != nil {
		return 0, errors.Annotatef(err, "battery path=%s", self.Path)
	}
	uv, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, errors.Annotatef(err, "battery path=%s", self.Path)
	}
	return uv / 1000, nil
}

type Fixed float64

func (f Fixed) ReadMillivolts() (float64, error) { return float64(f), nil }
