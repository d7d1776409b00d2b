// Separate package is workaround to import cycles.
package forward_config

const (
	KindHTTP  = "http"
	KindMQTT  = "mqtt"
	KindKafka = "kafka"
	KindLog   = "log"
)

type Config struct { //nolint:maligned
	Kind              string   `hcl:"kind"`
	URL               string   `hcl:"url"`
	Broker            string   `hcl:"broker"`
	KafkaBrokers      []string `hcl:"kafka_brokers"`
	Topic             string   `hcl:"topic"`
	StatusTopic       string   `hcl:"status_topic"`
	ClientId          string   `hcl:"client_id"`
	Username          string   `hcl:"username"`
	Password          string   `hcl:"password"` // secret
	ConnectTimeoutSec int      `hcl:"connect_timeout_sec"`
	NetworkTimeoutSec int      `hcl:"network_timeout_sec"`
	KeepaliveSec      int      `hcl:"keepalive_sec"`
	LogDebug          bool     `hcl:"log_debug"`
	MqttLogDebug      bool     `hcl:"mqtt_log_debug"`
}
