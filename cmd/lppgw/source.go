package main

import (
	"bufio"
	"io"
	"net"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/lppgw/helpers"
	"github.com/temoto/lppgw/log2"
)

const udpPollInterval = time.Second

// readHexLines sends one packet per non-empty line, '#' starts a comment.
// Lines that fail to parse are logged and skipped.
func readHexLines(a *alive.Alive, log *log2.Log, r io.Reader, out chan<- []byte) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	stopCh := a.StopChan()
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		b, err := helpers.ParseHex(line)
		if err != nil {
			log.Errorf("input line=%d %v", lineno, err)
			continue
		}
		select {
		case out <- b:
		case <-stopCh:
			return nil
		}
	}
	return errors.Trace(scanner.Err())
}

// readHexFile is readHexLines for a file it closes when done.
func readHexFile(a *alive.Alive, log *log2.Log, f io.ReadCloser, out chan<- []byte) error {
	defer f.Close()
	return readHexLines(a, log, f, out)
}

// readDatagrams sends one packet per datagram until a is stopped.
func readDatagrams(a *alive.Alive, log *log2.Log, conn net.PacketConn, bufSize int, out chan<- []byte) error {
	buf := make([]byte, bufSize)
	stopCh := a.StopChan()
	for a.IsRunning() {
		if err := conn.SetReadDeadline(time.Now().Add(udpPollInterval)); err != nil {
			return errors.Trace(err)
		}
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				continue
			}
			if !a.IsRunning() {
				return nil
			}
			return errors.Annotate(err, "udp read")
		}
		log.Debugf("input udp from=%s len=%d", addr, n)
		packet := append([]byte(nil), buf[:n]...)
		select {
		case out <- packet:
		case <-stopCh:
			return nil
		}
	}
	return nil
}
