package main

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/lppgw/log2"
)

func TestReadHexLines(t *testing.T) {
	t.Parallel()

	input := `
# temperature
0567 00c8
zz
01:68:64 # humidity
`
	a := alive.NewAlive()
	out := make(chan []byte, 8)
	err := readHexLines(a, log2.NewTest(t, log2.LDebug), strings.NewReader(input), out)
	require.NoError(t, err)
	close(out)
	var got [][]byte
	for p := range out {
		got = append(got, p)
	}
	assert.Equal(t, [][]byte{{0x05, 0x67, 0x00, 0xc8}, {0x01, 0x68, 0x64}}, got)
}

func TestReadHexLinesStop(t *testing.T) {
	t.Parallel()

	a := alive.NewAlive()
	a.Stop()
	out := make(chan []byte)
	err := readHexLines(a, log2.NewTest(t, log2.LDebug), strings.NewReader("0567 00c8\n"), out)
	assert.NoError(t, err)
}

func TestReadDatagrams(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	a := alive.NewAlive()
	out := make(chan []byte, 1)
	done := make(chan error, 1)
	go func() { done <- readDatagrams(a, log2.NewTest(t, log2.LDebug), conn, 256, out) }()

	client, err := net.Dial("udp", conn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()
	_, err = client.Write([]byte{0x05, 0x67, 0x00, 0xc8})
	require.NoError(t, err)

	select {
	case p := <-out:
		assert.Equal(t, []byte{0x05, 0x67, 0x00, 0xc8}, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no packet")
	}
	a.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("readDatagrams did not stop")
	}
}

type closeRecorder struct {
	io.Reader
	closed int
}

func (self *closeRecorder) Close() error {
	self.closed++
	return nil
}

func TestReadHexFileCloses(t *testing.T) {
	t.Parallel()

	a := alive.NewAlive()
	out := make(chan []byte, 2)
	f := &closeRecorder{Reader: strings.NewReader("0567 00c8\n")}
	require.NoError(t, readHexFile(a, log2.NewTest(t, log2.LDebug), f, out))
	assert.Equal(t, 1, f.closed)
	assert.Equal(t, []byte{0x05, 0x67, 0x00, 0xc8}, <-out)

	// stopped before the packet is taken
	a.Stop()
	f = &closeRecorder{Reader: strings.NewReader("0567 00c8\n0268 64\n")}
	require.NoError(t, readHexFile(a, log2.NewTest(t, log2.LDebug), f, make(chan []byte)))
	assert.Equal(t, 1, f.closed)
}
