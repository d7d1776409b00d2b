package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/lppgw/helpers"
	"github.com/temoto/lppgw/helpers/cli"
	"github.com/temoto/lppgw/log2"
	"github.com/temoto/lppgw/lpp"
	"github.com/temoto/lppgw/state"
)

const usage = `syntax: command [hex]
- XX...        same as decode
- decode XX... decode LPP packet, print JSON document
- split XX...  show record boundaries without decoding values
- send XX...   decode and forward via configured sink, like gateway does
- types        list known sensor types
- log=yes      enable debug logging
- log=no       disable debug logging
`

var log = log2.NewStderr(log2.LInfo)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := cmdline.String("config", "", "gateway config for send command, default forward kind=log")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	var config *state.Config
	if *configPath != "" {
		config = state.MustReadConfig(log, state.NewOsFullReader(), *configPath)
	} else {
		config = new(state.Config)
		config.Defaults()
	}
	// cli has no screen
	config.Display.Enable = false

	ctx, g := state.NewContext(log)
	g.MustInit(ctx, config)
	defer g.Stop()

	if err := cli.MainLoop("lpp-cli", newExecutor(ctx, os.Stdout), newCompleter()); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "decode", Description: "decode hex packet to JSON"},
		{Text: "split", Description: "show record boundaries"},
		{Text: "send", Description: "decode and forward"},
		{Text: "types", Description: "list sensor types"},
		{Text: "log=yes", Description: "enable debug logging"},
		{Text: "log=no", Description: "disable debug logging"},
		{Text: "help", Description: "show usage"},
	}
	return cli.Complete(suggests)
}

func newExecutor(ctx context.Context, w io.Writer) func(string) {
	g := state.GetGlobal(ctx)
	return func(line string) {
		if err := execLine(ctx, w, line); err != nil {
			g.Log.Errorf("%s", errors.ErrorStack(err))
		}
	}
}

func execLine(ctx context.Context, w io.Writer, line string) error {
	g := state.GetGlobal(ctx)
	cmd, arg := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		cmd, arg = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch cmd {
	case "help", "?":
		_, err := io.WriteString(w, usage)
		return err
	case "log=yes":
		g.Log.SetLevel(log2.LDebug)
		return nil
	case "log=no":
		g.Log.SetLevel(log2.LError)
		return nil
	case "types":
		for _, d := range lpp.Types() {
			fmt.Fprintf(w, "%3d %-20s width=%d divisor=%d shape=%s payload=%d\n",
				d.Code, d.Name, d.Width, d.Divisor, d.Shape, d.PayloadLen())
		}
		return nil
	case "split":
		return doSplit(w, arg)
	case "send":
		b, err := helpers.ParseHex(arg)
		if err != nil {
			return err
		}
		r := g.Gateway.Handle(ctx, b)
		fmt.Fprintf(w, "%s delivered=%t\n", r.Payload, r.Delivered)
		if !r.OK() {
			return errors.Annotatef(helpers.FoldErrors(nonNil(r.DecodeErr)), "send delivered=%t", r.Delivered)
		}
		return nil
	case "decode":
		return doDecode(w, arg)
	}
	// bare hex line
	return doDecode(w, line)
}

func doDecode(w io.Writer, s string) error {
	b, err := helpers.ParseHex(s)
	if err != nil {
		return err
	}
	doc, decodeErr := lpp.Decoder{Log: log.Tag("PARSE")}.Decode(b)
	j, err := json.Marshal(doc)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprintf(w, "%s\n", j)
	return errors.Trace(decodeErr)
}

func doSplit(w io.Writer, s string) error {
	b, err := helpers.ParseHex(s)
	if err != nil {
		return err
	}
	rs, err := lpp.Split(b)
	for _, r := range rs {
		d, _ := lpp.Lookup(r.Code)
		fmt.Fprintf(w, "offset=%d channel=%d type=%d(%s) payload=%s\n",
			r.Offset, r.Channel, r.Code, d.Name, helpers.HexSpaced(r.Payload(b)))
	}
	return errors.Trace(err)
}

func nonNil(err error) []error {
	if err == nil {
		return []error{errors.New("not delivered")}
	}
	return []error{err}
}
