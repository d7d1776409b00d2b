package state

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/lppgw/battery"
	"github.com/temoto/lppgw/display"
	"github.com/temoto/lppgw/forward"
	"github.com/temoto/lppgw/gateway"
	"github.com/temoto/lppgw/helpers"
	"github.com/temoto/lppgw/log2"
)

// Global is a set of runtime objects built from Config.
type Global struct {
	Alive     *alive.Alive
	Config    *Config
	Display   *display.TextDisplay
	Forwarder forward.Forwarder
	Gateway   *gateway.Gateway
	Log       *log2.Log

	// DisplayOut receives rendered display lines, default os.Stderr.
	DisplayOut io.Writer
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error state.NewContext() log=nil")
	}
	g := &Global{
		Alive: alive.NewAlive(),
		Log:   log,
	}
	ctx := context.Background()
	ctx = log2.ContextWithLogger(ctx, log)
	ctx = context.WithValue(ctx, ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	if cfg.LogDebug {
		g.Log.SetLevel(log2.LDebug)
	}

	f, err := forward.New(ctx, g.Log, cfg.Forward)
	if err != nil {
		return errors.Annotate(err, "forward init")
	}
	g.Forwarder = f

	if cfg.Display.Enable {
		out := g.DisplayOut
		if out == nil {
			out = os.Stderr
		}
		d, err := display.NewTextDisplay(&display.WriterDevice{W: out}, display.Config{
			Codepage: cfg.Display.Codepage,
			Lines:    cfg.Gateway.DisplayLines,
			Width:    cfg.Display.Width,
		})
		if err != nil {
			return errors.Annotate(err, "display init")
		}
		g.Display = d
	}

	g.Gateway = &gateway.Gateway{
		Log:            g.Log.Tag("gateway"),
		Forwarder:      g.Forwarder,
		Display:        g.Display,
		Tag:            cfg.Gateway.DisplayTag,
		BatterySamples: cfg.Gateway.BatterySamples,
	}
	if cfg.Gateway.DeviceEUI != "" {
		eui, err := helpers.ParseHex(cfg.Gateway.DeviceEUI)
		if err != nil {
			return errors.Annotate(err, "gateway.device_eui")
		}
		g.Gateway.DeviceEUI = eui
	}
	if cfg.Gateway.BatteryPath != "" {
		g.Gateway.Battery = battery.SysfsReader{Path: cfg.Gateway.BatteryPath}
	}
	g.Log.Debugf("config: input=%s forward=%s display=%t", cfg.Input.Kind, cfg.Forward.Kind, cfg.Display.Enable)
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Errorf("%s", errors.ErrorStack(err))
	}
}

// Stop closes forwarder after gateway loop is done.
func (g *Global) Stop() {
	g.Alive.Stop()
	g.Alive.Wait()
	if g.Forwarder != nil {
		g.Forwarder.Close()
	}
}
