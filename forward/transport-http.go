package forward

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/juju/errors"
	forward_config "github.com/temoto/lppgw/forward/config"
	"github.com/temoto/lppgw/log2"
)

type transportHttp struct {
	log    *log2.Log
	client *http.Client
	url    string
}

// NewHTTP posts payloads to conf.URL, success only on 200.
// rt=nil uses http.DefaultTransport; connections are redialed by it on demand.
func NewHTTP(log *log2.Log, conf forward_config.Config, rt http.RoundTripper) Forwarder {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &transportHttp{
		log: log,
		client: &http.Client{
			Transport: rt,
			Timeout:   connectTimeout(conf) + networkTimeout(conf),
		},
		url: conf.URL,
	}
}

func (self *transportHttp) Forward(ctx context.Context, payload []byte) bool {
	err := self.post(ctx, payload)
	if err != nil {
		self.log.Errorf("POST %v", err)
		return false
	}
	return true
}

func (self *transportHttp) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, self.url, bytes.NewReader(payload))
	if err != nil {
		return errors.Annotatef(err, "url=%s", self.url)
	}
	req.Header.Set("Content-Type", ContentType)
	self.log.Debugf("POST %s len=%d", self.url, len(payload))

	resp, err := self.client.Do(req)
	if err != nil {
		return errors.Annotatef(err, "url=%s", self.url)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("url=%s response=%d", self.url, resp.StatusCode)
	}
	return nil
}

func (self *transportHttp) Close() {
	self.client.CloseIdleConnections()
}
