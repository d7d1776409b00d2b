package forward

import (
	"context"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	forward_config "github.com/temoto/lppgw/forward/config"
	"github.com/temoto/lppgw/helpers"
	"github.com/temoto/lppgw/log2"
)

const (
	statusConnected    = "Connected"
	statusDisconnected = "Disconnected"
)

// paho keeps loggers in package globals
var mqttLogOnce sync.Once

type transportMqtt struct {
	log  *log2.Log
	m    mqtt.Client
	mopt *mqtt.ClientOptions

	topic          string
	statusTopic    string
	connectTimeout time.Duration
	networkTimeout time.Duration
}

// NewMQTT publishes payloads with QoS 1 to conf.Topic.
// newClient=nil uses mqtt.NewClient, tests pass mock constructor.
func NewMQTT(log *log2.Log, conf forward_config.Config, newClient func(*mqtt.ClientOptions) mqtt.Client) Forwarder {
	self := &transportMqtt{
		log:            log,
		topic:          conf.Topic,
		statusTopic:    conf.StatusTopic,
		connectTimeout: connectTimeout(conf),
		networkTimeout: networkTimeout(conf),
	}
	if self.statusTopic == "" {
		self.statusTopic = defaultStatusTopic
	}
	mqttLogOnce.Do(func() {
		mqttLog := log.Clone(log2.LDebug)
		mqtt.CRITICAL = mqttLog.Printer(log2.LError, "mqtt critical: ")
		mqtt.ERROR = mqttLog.Printer(log2.LError, "mqtt: ")
		mqtt.WARN = mqttLog.Printer(log2.LInfo, "mqtt warn: ")
		if conf.MqttLogDebug {
			mqtt.DEBUG = mqttLog.Printer(log2.LDebug, "mqtt debug: ")
		}
	})

	keepalive := helpers.IntSecondDefault(conf.KeepaliveSec, 2*self.connectTimeout)
	self.mopt = mqtt.NewClientOptions().
		AddBroker(conf.Broker).
		SetClientID(clientId(conf)).
		SetUsername(conf.Username).
		SetPassword(conf.Password).
		SetAutoReconnect(false).
		SetCleanSession(true).
		SetConnectTimeout(self.connectTimeout).
		SetKeepAlive(keepalive).
		SetPingTimeout(self.networkTimeout).
		SetWriteTimeout(self.networkTimeout).
		SetWill(self.statusTopic, statusDisconnected, 1, true).
		SetOnConnectHandler(self.onConnect).
		SetConnectionLostHandler(self.onConnectionLost)
	if newClient == nil {
		newClient = mqtt.NewClient
	}
	self.m = newClient(self.mopt)
	return self
}

func (self *transportMqtt) Forward(ctx context.Context, payload []byte) bool {
	if !self.online(ctx) {
		return false
	}
	self.log.Debugf("publish topic=%s len=%d", self.topic, len(payload))
	t := self.m.Publish(self.topic, 1, false, payload)
	if err := self.tokenWait(ctx, t, self.networkTimeout, "publish"); err != nil {
		return false
	}
	return true
}

func (self *transportMqtt) Close() {
	if !self.m.IsConnected() {
		return
	}
	t := self.m.Publish(self.statusTopic, 1, true, statusDisconnected)
	_ = self.tokenWait(context.Background(), t, self.networkTimeout, "publish status")
	self.m.Disconnect(uint(self.networkTimeout / time.Millisecond))
}

// one connect attempt when not connected
func (self *transportMqtt) online(ctx context.Context) bool {
	if self.m.IsConnected() {
		return true
	}
	self.log.Infof("no connection, connecting broker")
	t := self.m.Connect()
	if err := self.tokenWait(ctx, t, self.connectTimeout, "connect"); err != nil {
		return false
	}
	return self.m.IsConnected()
}

func (self *transportMqtt) onConnect(c mqtt.Client) {
	self.log.Infof("connected")
	c.Publish(self.statusTopic, 1, true, statusConnected)
}

func (self *transportMqtt) onConnectionLost(_ mqtt.Client, err error) {
	self.log.Infof("connection lost err=%v", err)
}

func (self *transportMqtt) tokenWait(ctx context.Context, t mqtt.Token, timeout time.Duration, tag string) error {
	done := make(chan bool, 1)
	go func() { done <- t.WaitTimeout(timeout) }()
	var err error
	select {
	case ok := <-done:
		if !ok {
			err = errors.Timeoutf("mqtt %s", tag)
		} else if terr := t.Error(); terr != nil {
			err = errors.Annotatef(terr, "mqtt %s", tag)
		}
	case <-ctx.Done():
		err = errors.Annotatef(ctx.Err(), "mqtt %s", tag)
	}
	if err != nil {
		self.log.Errorf("%s", err.Error())
	}
	return err
}
