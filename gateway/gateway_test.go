package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/lppgw/battery"
	"github.com/temoto/lppgw/display"
	"github.com/temoto/lppgw/helpers"
	"github.com/temoto/lppgw/log2"
	"github.com/temoto/lppgw/lpp"
)

type forwarderMock struct {
	mu     sync.Mutex
	result bool
	sent   []string
}

func (self *forwarderMock) Forward(_ context.Context, payload []byte) bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.sent = append(self.sent, string(payload))
	return self.result
}
func (self *forwarderMock) Close() {}

func (self *forwarderMock) Sent() []string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]string(nil), self.sent...)
}

func newTestGateway(t testing.TB, fwdResult bool) (*Gateway, *forwarderMock, *display.MockDevicer) {
	fwd := &forwarderMock{result: fwdResult}
	dev := new(display.MockDevicer)
	d, err := display.NewTextDisplay(dev, display.Config{Width: 21, Lines: 4})
	require.NoError(t, err)
	g := &Gateway{
		Log:       log2.NewTest(t, log2.LDebug),
		Forwarder: fwd,
		Display:   d,
		Battery:   battery.Fixed(4100),
	}
	return g, fwd, dev
}

func TestHandle(t *testing.T) {
	t.Parallel()

	type Case struct {
		name       string
		packet     string
		fwdResult  bool
		expectOK   bool
		expectSent []string
		expectLine string
	}
	cases := []Case{
		{"ok", "0567 00c8", true, true, []string{`{"temperature_5":20}`}, "Node POST sent"},
		{"forward-fail", "0567 00c8", false, false, []string{`{"temperature_5":20}`}, "Node POST failed"},
		{"unknown-type", "0567 00c8 0163 ffff", true, false,
			[]string{`{"temperature_5":20,"error":"Invalid LPP ID"}`}, "Node POST failed"},
		{"truncated", "0567 00", true, false, nil, "Node POST failed"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			g, fwd, dev := newTestGateway(t, c.fwdResult)
			r := g.Handle(context.Background(), helpers.MustHex(c.packet))
			assert.Equal(t, c.expectOK, r.OK())
			assert.Equal(t, c.expectSent, fwd.Sent())
			assert.Equal(t, "P2P GW B 4.10V", string(g.Display.State().Header))
			assert.Contains(t, dev.Line(1), c.expectLine)
			if c.expectOK {
				assert.Equal(t, Stat{Received: 1, Decoded: 1, Delivered: 1}, g.Stat())
			} else {
				assert.Equal(t, uint32(1), g.Stat().Failed)
			}
		})
	}
}

func TestHandleErrorKinds(t *testing.T) {
	t.Parallel()

	g, _, _ := newTestGateway(t, true)
	r := g.Handle(context.Background(), helpers.MustHex("0163"))
	assert.True(t, errors.Is(r.DecodeErr, lpp.ErrUnknownType))
	assert.True(t, r.Delivered)
	assert.False(t, r.OK())

	r = g.Handle(context.Background(), helpers.MustHex("01"))
	assert.True(t, errors.Is(r.DecodeErr, lpp.ErrTruncated))
	assert.False(t, r.Delivered)
	assert.Nil(t, r.Payload)
}

func TestHandleWithoutDisplay(t *testing.T) {
	t.Parallel()

	fwd := &forwarderMock{result: true}
	g := &Gateway{Forwarder: fwd, Tag: "GW"}
	r := g.Handle(context.Background(), helpers.MustHex("00ff 564dc1f3"))
	require.True(t, r.OK())
	assert.Equal(t, []string{`{"node_id":1447936499}`}, fwd.Sent())
}

func TestRun(t *testing.T) {
	t.Parallel()

	g, fwd, _ := newTestGateway(t, true)
	a := alive.NewAlive()
	packets := make(chan []byte, 3)
	packets <- helpers.MustHex("0567 00c8")
	packets <- helpers.MustHex("0268 64")
	packets <- helpers.MustHex("0299")
	close(packets)
	require.NoError(t, g.Run(context.Background(), a, packets))
	assert.Len(t, fwd.Sent(), 3)
	assert.Equal(t, Stat{Received: 3, Decoded: 2, Invalid: 1, Delivered: 3, Failed: 1}, g.Stat())
}

func TestRunStop(t *testing.T) {
	t.Parallel()

	g, _, _ := newTestGateway(t, true)
	a := alive.NewAlive()
	packets := make(chan []byte)
	done := make(chan error, 1)
	go func() { done <- g.Run(context.Background(), a, packets) }()
	a.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestHandleDeviceEUI(t *testing.T) {
	t.Parallel()

	g, _, dev := newTestGateway(t, true)
	g.DeviceEUI = helpers.MustHex("ac1f09fffe0a1b2c")
	r := g.Handle(context.Background(), helpers.MustHex("0567 00c8"))
	require.True(t, r.OK())
	assert.Equal(t, "P2P GW B 4.10V\n>> AC1F09FFFE0A1B2C\nNode POST sent", g.Display.State().String())
	assert.Contains(t, dev.Line(1), ">> AC1F09FFFE0A1B2C")
}
