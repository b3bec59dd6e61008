package broker

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"modbusbridge/pkg/utils/uuidutil"
	"time"
)

type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
}

// MQTTSink publishes through a paho client.
type MQTTSink struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
}

func NewMQTTSink(client mqtt.Client, qos byte) *MQTTSink {
	return &MQTTSink{client: client, qos: qos, timeout: mqttTimeout}
}

func (s *MQTTSink) Publish(topic string, payload []byte) error {
	if !s.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	token := s.client.Publish(topic, s.qos, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return errors.Errorf("publish %s timed out after %s", topic, s.timeout)
	}
	return token.Error()
}

// ConnectMQTT connects to the broker and subscribes mux to the request topics
// on every (re)connect. A broker that is not reachable yet is retried in the
// background.
func ConnectMQTT(cfg MQTTConfig, mux *Mux) (mqtt.Client, error) {
	if len(cfg.Broker) == 0 {
		return nil, errors.New("mqtt broker address is required")
	}
	clientID := cfg.ClientID
	if len(clientID) == 0 {
		clientID = "modbusbridge-" + uuidutil.ShortUUID()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	if len(cfg.Username) > 0 {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.KeepAlive > 0 {
		opts.SetKeepAlive(cfg.KeepAlive)
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		klog.V(1).InfoS("Connected to MQTT broker", "broker", cfg.Broker, "clientId", clientID)
		if mux == nil {
			return
		}
		for _, filter := range mux.Topics().Subscriptions() {
			token := c.Subscribe(filter, cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
				mux.Handle(msg.Topic(), msg.Payload())
			})
			if token.WaitTimeout(mqttTimeout) && token.Error() == nil {
				klog.V(3).InfoS("Subscribed", "topic", filter)
			} else {
				klog.ErrorS(token.Error(), "Failed to subscribe", "topic", filter)
			}
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		klog.V(1).InfoS("Lost MQTT connection", "broker", cfg.Broker, "err", err)
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		klog.V(2).InfoS("Reconnecting to MQTT broker", "broker", cfg.Broker)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if !token.WaitTimeout(timeout) {
		klog.V(1).InfoS("MQTT broker not reachable yet, retrying in background", "broker", cfg.Broker)
		return client, nil
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connect mqtt broker %s", cfg.Broker)
	}
	return client, nil
}

func DisconnectMQTT(client mqtt.Client) {
	if client != nil {
		client.Disconnect(disconnectQuiesce)
	}
}
