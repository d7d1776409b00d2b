package state

import (
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	forward_config "github.com/temoto/lppgw/forward/config"
	"github.com/temoto/lppgw/helpers"
	"github.com/temoto/lppgw/log2"
)

const (
	InputHex = "hex"
	InputUDP = "udp"

	defaultInputPath   = "-"
	defaultInputListen = ":1700"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Gateway struct {
		DisplayTag     string `hcl:"display_tag"`
		DisplayLines   int    `hcl:"display_lines"`
		BatteryPath    string `hcl:"battery_path"`
		BatterySamples int    `hcl:"battery_samples"`
		// hex, 8 bytes
		DeviceEUI string `hcl:"device_eui"`
	}
	Input struct {
		Kind   string `hcl:"kind"`
		Path   string `hcl:"path"`
		Listen string `hcl:"listen"`
		// max datagram size for udp
		BufferSize int `hcl:"buffer_size"`
	}
	Forward forward_config.Config
	Display struct {
		Enable   bool   `hcl:"enable"`
		Codepage string `hcl:"codepage"`
		Width    int    `hcl:"width"`
	}
	LogDebug bool `hcl:"log_debug"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// Defaults fills empty fields, ReadConfig calls it after all sources are merged.
func (c *Config) Defaults() {
	if c.Input.Kind == "" {
		c.Input.Kind = InputHex
	}
	if c.Input.Path == "" {
		c.Input.Path = defaultInputPath
	}
	if c.Input.Listen == "" {
		c.Input.Listen = defaultInputListen
	}
	if c.Input.BufferSize <= 0 {
		c.Input.BufferSize = 1 << 16
	}
	if c.Forward.Kind == "" {
		c.Forward.Kind = forward_config.KindLog
	}
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 2)
	switch c.Input.Kind {
	case InputHex, InputUDP:
	default:
		errs = append(errs, errors.NotValidf("config input.kind='%s'", c.Input.Kind))
	}
	if c.Gateway.DeviceEUI != "" {
		if b, err := helpers.ParseHex(c.Gateway.DeviceEUI); err != nil || len(b) != 8 {
			errs = append(errs, errors.NotValidf("config gateway.device_eui='%s' expected 8 bytes hex", c.Gateway.DeviceEUI))
		}
	}
	if c.Gateway.DisplayLines < 0 {
		errs = append(errs, errors.NotValidf("config gateway.display_lines=%d", c.Gateway.DisplayLines))
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) == 0 {
		c.Defaults()
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
