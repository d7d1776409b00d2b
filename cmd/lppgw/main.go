package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/lppgw/log2"
	"github.com/temoto/lppgw/state"
)

func main() {
	flagConfig := flag.String("config", "lppgw.hcl", "")
	flag.Parse()

	log := log2.NewStderr(log2.LInfo)
	if sdnotify("start") {
		// we're under systemd, assume systemd journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	}
	log.Debugf("hello")

	ctx, g := state.NewContext(log)
	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	g.MustInit(ctx, config)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("signal=%v stopping", sig)
		g.Alive.Stop()
	}()

	packets := make(chan []byte)
	if err := startSource(g, packets); err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}

	sdnotify(daemon.SdNotifyReady)
	log.Infof("gateway running input=%s forward=%s", config.Input.Kind, config.Forward.Kind)
	if !g.Alive.Add(1) {
		return
	}
	err := g.Gateway.Run(ctx, g.Alive, packets)
	g.Alive.Done()
	if err != nil {
		g.Error(err, "gateway")
	}

	sdnotify(daemon.SdNotifyStopping)
	g.Stop()
	s := g.Gateway.Stat()
	log.Infof("stat received=%d decoded=%d invalid=%d delivered=%d failed=%d",
		s.Received, s.Decoded, s.Invalid, s.Delivered, s.Failed)
}

func startSource(g *state.Global, packets chan<- []byte) error {
	conf := g.Config.Input
	switch conf.Kind {
	case state.InputHex:
		var f *os.File
		if conf.Path != "-" {
			var err error
			if f, err = os.Open(conf.Path); err != nil {
				return errors.Annotate(err, "input")
			}
		}
		// blocked read on stdin is not interruptible, so this reader is not an alive task
		go func() {
			var err error
			if f == nil {
				err = readHexLines(g.Alive, g.Log, os.Stdin, packets)
			} else {
				err = readHexFile(g.Alive, g.Log, f, packets)
			}
			if err != nil {
				g.Error(err, "input hex")
			}
			g.Alive.Stop()
		}()
		return nil

	case state.InputUDP:
		conn, err := net.ListenPacket("udp", conf.Listen)
		if err != nil {
			return errors.Annotatef(err, "input udp listen=%s", conf.Listen)
		}
		g.Log.Infof("input udp listen=%s", conn.LocalAddr())
		if !g.Alive.Add(1) {
			conn.Close()
			return nil
		}
		go func() {
			defer g.Alive.Done()
			defer conn.Close()
			err := readDatagrams(g.Alive, g.Log, conn, conf.BufferSize, packets)
			if err != nil {
				g.Error(err, "input udp")
				g.Alive.Stop()
			}
		}()
		return nil
	}
	return fmt.Errorf("code error input kind=%s passed Validate", conf.Kind)
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log2.NewStderr(log2.LError).Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
