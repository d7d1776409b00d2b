package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/lppgw/helpers/cli"
	"github.com/temoto/lppgw/lpp"
	"github.com/temoto/lppgw/state"
)

func TestExecLine(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		line      string
		expect    string
		expectErr string
	}
	cases := []Case{
		{"bare-hex", "0567 00c8", "{\"temperature_5\":20}\n", ""},
		{"decode", "decode 01:88:01:86:a0:03:0d:40:00:01:f4", "{\"gps_1\":{\"Lat\":10,\"Lng\":20,\"Alt\":5}}\n", ""},
		{"decode-unknown", "decode 0163ff", "{\"error\":\"Invalid LPP ID\"}\n", "unknown type=99"},
		{"decode-bad-hex", "decode zz", "", "hex input='zz'"},
		{"split", "split 0167 00c8 0268 64",
			"offset=0 channel=1 type=103(temperature) payload=00 C8\n" +
				"offset=4 channel=2 type=104(humidity) payload=64\n", ""},
		{"send", "send 0567 00c8", "{\"temperature_5\":20} delivered=true\n", ""},
		{"send-truncated", "send 0567 00", " delivered=false\n", "truncated"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			ctx, g := state.NewTestContext(t, "")
			defer g.Stop()
			var buf bytes.Buffer
			err := execLine(ctx, &buf, c.line)
			if c.expectErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), c.expectErr)
			}
			assert.Equal(t, c.expect, buf.String())
		})
	}
}

func TestExecTypes(t *testing.T) {
	t.Parallel()

	ctx, g := state.NewTestContext(t, "")
	defer g.Stop()
	var buf bytes.Buffer
	require.NoError(t, execLine(ctx, &buf, "types"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, len(lpp.Types()))
	assert.Contains(t, buf.String(), "temperature")
}

func TestExecutorScript(t *testing.T) {
	t.Parallel()

	ctx, g := state.NewTestContext(t, "")
	defer g.Stop()
	var buf bytes.Buffer
	exec := newExecutor(ctx, &buf)
	err := cli.ExecLines(strings.NewReader("log=yes\n\n0567 00c8\nlog=no\n0268 64\n"), exec)
	require.NoError(t, err)
	assert.Equal(t, "{\"temperature_5\":20}\n{\"humidity_2\":50}\n", buf.String())
}
