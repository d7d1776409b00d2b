package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecLines(t *testing.T) {
	t.Parallel()

	var got []string
	err := ExecLines(strings.NewReader("  decode 0167\n\n\ttypes \n"), func(line string) {
		got = append(got, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"decode 0167", "types"}, got)
}
