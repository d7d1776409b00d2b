// Package gateway runs decode-and-forward cycle for each received packet.
//
// One packet is handled at a time, run to completion:
// decode -> serialize -> forward -> log and display status.
// Unknown sensor type still forwards partial document with "error" field,
// so the sink sees the failure, but the cycle is reported as failed.
package gateway

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/temoto/alive/v2"
	"github.com/temoto/lppgw/battery"
	"github.com/temoto/lppgw/display"
	"github.com/temoto/lppgw/forward"
	"github.com/temoto/lppgw/helpers"
	"github.com/temoto/lppgw/log2"
	"github.com/temoto/lppgw/lpp"
)

const (
	DefaultTag            = "Node"
	DefaultBatterySamples = 10
)

type Gateway struct {
	Log       *log2.Log
	Forwarder forward.Forwarder
	Display   *display.TextDisplay // optional
	Battery   battery.Reader       // optional
	// status line "<Tag> POST sent" or "<Tag> POST failed"
	Tag            string
	BatterySamples int
	// optional 8 bytes, shown as ">> %016X" line before each packet
	DeviceEUI []byte

	stat Stat
}

type Stat struct {
	Received  uint32
	Decoded   uint32
	Invalid   uint32
	Delivered uint32
	Failed    uint32
}

type Result struct {
	Doc       *lpp.Document
	Payload   []byte
	DecodeErr error
	Delivered bool
}

func (r Result) OK() bool { return r.DecodeErr == nil && r.Delivered }

func (self *Gateway) Stat() Stat {
	return Stat{
		Received:  atomic.LoadUint32(&self.stat.Received),
		Decoded:   atomic.LoadUint32(&self.stat.Decoded),
		Invalid:   atomic.LoadUint32(&self.stat.Invalid),
		Delivered: atomic.LoadUint32(&self.stat.Delivered),
		Failed:    atomic.LoadUint32(&self.stat.Failed),
	}
}

func (self *Gateway) Handle(ctx context.Context, packet []byte) Result {
	atomic.AddUint32(&self.stat.Received, 1)
	self.Log.Debugf("packet len=%d %s", len(packet), helpers.HexSpaced(packet))
	self.header()

	dec := lpp.Decoder{Log: self.Log.Tag("PARSE")}
	doc, err := dec.Decode(packet)
	r := Result{Doc: doc, DecodeErr: err}
	if err != nil {
		atomic.AddUint32(&self.stat.Invalid, 1)
		if !errors.Is(err, lpp.ErrUnknownType) {
			self.Log.Errorf("decode packet=%x err=%v", packet, err)
			self.finish(r)
			return r
		}
		self.Log.Errorf("decode %v, sending error document", err)
	} else {
		atomic.AddUint32(&self.stat.Decoded, 1)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		self.Log.Errorf("CRITICAL json doc=%s err=%v", doc, err)
		self.finish(r)
		return r
	}
	r.Payload = payload
	self.Log.Infof("sending %d bytes %s", len(payload), payload)
	r.Delivered = self.Forwarder.Forward(ctx, payload)
	if !r.Delivered {
		self.Log.Errorf("send failed")
	} else {
		atomic.AddUint32(&self.stat.Delivered, 1)
	}
	self.finish(r)
	return r
}

// Run handles packets until channel is closed, ctx is done or a is stopped.
func (self *Gateway) Run(ctx context.Context, a *alive.Alive, packets <-chan []byte) error {
	stopCh := a.StopChan()
	for a.IsRunning() {
		select {
		case p, ok := <-packets:
			if !ok {
				return nil
			}
			self.Handle(ctx, p)
		case <-stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (self *Gateway) finish(r Result) {
	tag := self.Tag
	if tag == "" {
		tag = DefaultTag
	}
	var line string
	if r.OK() {
		line = tag + " POST sent"
	} else {
		atomic.AddUint32(&self.stat.Failed, 1)
		line = tag + " POST failed"
	}
	self.Log.Infof("%s", line)
	if self.Display != nil {
		self.Display.AddLine(line)
	}
}

func (self *Gateway) header() {
	if self.Display == nil {
		return
	}
	self.batteryHeader()
	if len(self.DeviceEUI) == 8 {
		self.Display.AddLine(fmt.Sprintf(">> %016X", binary.BigEndian.Uint64(self.DeviceEUI)))
	}
}

func (self *Gateway) batteryHeader() {
	if self.Battery == nil {
		return
	}
	n := self.BatterySamples
	if n <= 0 {
		n = DefaultBatterySamples
	}
	mv, err := battery.Average(self.Battery, n)
	if err != nil {
		self.Log.Errorf("battery %v", err)
		return
	}
	self.Display.SetHeader(fmt.Sprintf("P2P GW B %.2fV", mv/1000))
}
