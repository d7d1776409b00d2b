// Package forward delivers serialized telemetry documents to a remote sink.
//
// Forwarder contract:
// - Forward ensures connection first, with at most one reconnect attempt bounded by connect timeout
// - then exactly one publish/post; true only when receiver confirmed delivery
// - no queue, no backoff, undelivered payload is dropped by caller (at most once)
// - failures are logged, never panic
package forward

import (
	"context"
	"time"

	"github.com/juju/errors"
	forward_config "github.com/temoto/lppgw/forward/config"
	"github.com/temoto/lppgw/helpers"
	"github.com/temoto/lppgw/log2"
)

const (
	ContentType = "application/json"

	defaultConnectTimeout = 30 * time.Second
	defaultNetworkTimeout = 10 * time.Second
	defaultClientId       = "lppgw"
	defaultStatusTopic    = "P2P_GW"
)

var ErrForward = errors.New("forward failed")

type Forwarder interface {
	Forward(ctx context.Context, payload []byte) bool
	Close()
}

// New creates forwarder of config.Kind with production transports.
func New(ctx context.Context, log *log2.Log, conf forward_config.Config) (Forwarder, error) {
	if err := Validate(conf); err != nil {
		return nil, err
	}
	log = log.Tag("forward")
	if conf.LogDebug {
		log.SetLevel(log2.LDebug)
	}
	switch conf.Kind {
	case forward_config.KindHTTP:
		return NewHTTP(log, conf, nil), nil
	case forward_config.KindMQTT:
		return NewMQTT(log, conf, nil), nil
	case forward_config.KindKafka:
		return NewKafka(log, conf, nil), nil
	case forward_config.KindLog:
		return NewLog(log), nil
	}
	panic("code error forward kind passed Validate: " + conf.Kind)
}

func Validate(conf forward_config.Config) error {
	switch conf.Kind {
	case forward_config.KindHTTP:
		if conf.URL == "" {
			return errors.NotValidf("forward kind=http requires url")
		}
	case forward_config.KindMQTT:
		if conf.Broker == "" || conf.Topic == "" {
			return errors.NotValidf("forward kind=mqtt requires broker and topic")
		}
	case forward_config.KindKafka:
		if len(conf.KafkaBrokers) == 0 || conf.Topic == "" {
			return errors.NotValidf("forward kind=kafka requires kafka_brokers and topic")
		}
	case forward_config.KindLog:
	default:
		return errors.NotValidf("forward kind='%s'", conf.Kind)
	}
	return nil
}

// Do is Forward for callers that prefer error, errors.Cause(err) == ErrForward.
func Do(ctx context.Context, f Forwarder, payload []byte) error {
	if f.Forward(ctx, payload) {
		return nil
	}
	return errors.Annotatef(ErrForward, "payload len=%d", len(payload))
}

func connectTimeout(conf forward_config.Config) time.Duration {
	return helpers.IntSecondDefault(conf.ConnectTimeoutSec, defaultConnectTimeout)
}

func networkTimeout(conf forward_config.Config) time.Duration {
	d := helpers.IntSecondDefault(conf.NetworkTimeoutSec, defaultNetworkTimeout)
	if d < 1*time.Second {
		d = 1 * time.Second
	}
	return d
}

func clientId(conf forward_config.Config) string {
	if conf.ClientId == "" {
		return defaultClientId
	}
	return conf.ClientId
}
