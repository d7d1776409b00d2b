package forward

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
)

type mqttMock struct {
	mu         sync.Mutex
	opt        *mqtt.ClientOptions
	connected  bool
	connectErr error
	publishErr error
	timeout    bool
	connects   int
	pub        []mockMsg
}

type mockMsg struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

func (self *mqttMock) new(opt *mqtt.ClientOptions) mqtt.Client {
	self.opt = opt
	return self
}

func (self *mqttMock) published() []mockMsg {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]mockMsg(nil), self.pub...)
}

func (self *mqttMock) IsConnected() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.connected
}
func (self *mqttMock) IsConnectionOpen() bool { return self.IsConnected() }

func (self *mqttMock) Connect() mqtt.Token {
	self.mu.Lock()
	self.connects++
	err := self.connectErr
	if err == nil {
		self.connected = true
	}
	self.mu.Unlock()
	if err == nil && self.opt != nil && self.opt.OnConnect != nil {
		self.opt.OnConnect(self)
	}
	return mockToken{err: err, timeout: self.timeout}
}

func (self *mqttMock) Disconnect(uint) {
	self.mu.Lock()
	self.connected = false
	self.mu.Unlock()
}

func (self *mqttMock) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = p
	case string:
		b = []byte(p)
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.publishErr == nil && !self.timeout {
		self.pub = append(self.pub, mockMsg{topic, qos, retained, b})
	}
	return mockToken{err: self.publishErr, timeout: self.timeout}
}

func (self *mqttMock) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token {
	panic("not implemented")
}
func (self *mqttMock) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	panic("not implemented")
}
func (self *mqttMock) Unsubscribe(...string) mqtt.Token         { panic("not implemented") }
func (self *mqttMock) AddRoute(string, mqtt.MessageHandler)     { panic("not implemented") }
func (self *mqttMock) OptionsReader() mqtt.ClientOptionsReader { panic("not implemented") }

type mockToken struct {
	err     error
	timeout bool
}

func (tok mockToken) Error() error                    { return tok.err }
func (tok mockToken) Wait() bool                      { return !tok.timeout && !errors.IsTimeout(tok.err) }
func (tok mockToken) WaitTimeout(time.Duration) bool { return tok.Wait() }
