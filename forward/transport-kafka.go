package forward

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/segmentio/kafka-go"
	forward_config "github.com/temoto/lppgw/forward/config"
	"github.com/temoto/lppgw/log2"
)

// KafkaWriter is subset of *kafka.Writer used by forwarder.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type transportKafka struct {
	log     *log2.Log
	w       KafkaWriter
	key     []byte
	topic   string
	timeout time.Duration
}

// NewKafka produces one message per payload, keyed by client id.
// w=nil creates *kafka.Writer for conf.KafkaBrokers.
func NewKafka(log *log2.Log, conf forward_config.Config, w KafkaWriter) Forwarder {
	timeout := connectTimeout(conf) + networkTimeout(conf)
	if w == nil {
		w = &kafka.Writer{
			Addr:         kafka.TCP(conf.KafkaBrokers...),
			Topic:        conf.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  1,
			BatchSize:    1,
			WriteTimeout: networkTimeout(conf),
			ReadTimeout:  networkTimeout(conf),
		}
	}
	return &transportKafka{
		log:     log,
		w:       w,
		key:     []byte(clientId(conf)),
		topic:   conf.Topic,
		timeout: timeout,
	}
}

func (self *transportKafka) Forward(ctx context.Context, payload []byte) bool {
	ctx, cancel := context.WithTimeout(ctx, self.timeout)
	defer cancel()
	msg := kafka.Message{
		Key:   self.key,
		Value: payload,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(ContentType)},
		},
	}
	if err := self.w.WriteMessages(ctx, msg); err != nil {
		self.log.Errorf("%s", errors.Annotatef(err, "kafka topic=%s", self.topic).Error())
		return false
	}
	self.log.Debugf("kafka produced topic=%s len=%d", self.topic, len(payload))
	return true
}

func (self *transportKafka) Close() {
	if err := self.w.Close(); err != nil {
		self.log.Errorf("kafka close err=%v", err)
	}
}
