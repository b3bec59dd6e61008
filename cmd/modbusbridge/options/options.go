package options

import (
	"github.com/spf13/pflag"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"modbusbridge/cmd/modbusbridge/config"
	"modbusbridge/pkg/broker"
	"modbusbridge/pkg/device"
	"modbusbridge/pkg/gateway"
	baseoptions "modbusbridge/pkg/generic/options"
	v1 "modbusbridge/pkg/v1"
	"time"
)

type MQTTOptions struct {
	Broker         string          `json:"broker"`
	ClientID       string          `json:"clientId,omitempty"`
	Username       string          `json:"username,omitempty"`
	Password       string          `json:"password,omitempty"`
	QoS            uint8           `json:"qos"`
	BaseTopic      string          `json:"baseTopic"`
	KeepAlive      metav1.Duration `json:"keepAlive"`
	ConnectTimeout metav1.Duration `json:"connectTimeout"`
	OutboundSize   int             `json:"outboundSize"`
	InboundSize    int             `json:"inboundSize"`
}

type Options struct {
	Port     string        `json:"port"`
	Wait     time.Duration `json:"graceful-timeout"`
	Name     string        `json:"name"`
	CertFile string        `json:"certFile,omitempty"`
	KeyFile  string        `json:"keyFile,omitempty"`
	MQTT     MQTTOptions   `json:"mqtt"`
	Units    []*v1.Unit    `json:"units"`
	baseoptions.BaseOptions
}

const (
	_defaultPort      = "32200"
	_defaultWait      = 15 * time.Second
	_defaultBroker    = "tcp://127.0.0.1:1883"
	_defaultBaseTopic = "modbusbridge"
)

func NewDefaultOptions() *Options {
	return &Options{
		Port: _defaultPort,
		Wait: _defaultWait,
		Name: "modbusbridge",
		MQTT: MQTTOptions{
			Broker:         _defaultBroker,
			QoS:            broker.DefaultQoS,
			BaseTopic:      _defaultBaseTopic,
			KeepAlive:      metav1.Duration{Duration: 30 * time.Second},
			ConnectTimeout: metav1.Duration{Duration: 10 * time.Second},
			OutboundSize:   broker.DefaultOutboundSize,
			InboundSize:    broker.DefaultInboundSize,
		},
		BaseOptions: baseoptions.NewDefaultBaseOptions(),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Port, "port", "P", o.Port, "Port exposed")
	fs.DurationVar(&o.Wait, "graceful-timeout", o.Wait, "The duration for which the server gracefully wait for existing connections to finish - e.g. 15s or 1m")
	fs.StringVar(&o.Name, "name", o.Name, "Name this bridge reports on the gateway endpoints")
	fs.StringVar(&o.CertFile, "tls-cert-file", o.CertFile, "File containing the x509 certificate for HTTPS")
	fs.StringVar(&o.KeyFile, "tls-private-key-file", o.KeyFile, "File containing the x509 private key matching --tls-cert-file")
	fs.StringVar(&o.MQTT.Broker, "mqtt-broker", o.MQTT.Broker, "MQTT broker address, e.g. tcp://127.0.0.1:1883")
	fs.StringVar(&o.MQTT.ClientID, "mqtt-client-id", o.MQTT.ClientID, "MQTT client id, generated when empty")
	fs.StringVar(&o.MQTT.Username, "mqtt-username", o.MQTT.Username, "MQTT username")
	fs.StringVar(&o.MQTT.Password, "mqtt-password", o.MQTT.Password, "MQTT password")
	fs.Uint8Var(&o.MQTT.QoS, "mqtt-qos", o.MQTT.QoS, "QoS of published messages and subscriptions (0, 1 or 2)")
	fs.StringVar(&o.MQTT.BaseTopic, "base-topic", o.MQTT.BaseTopic, "Topic prefix of every published and subscribed topic")
}

// mqttConfig is the broker configuration the options describe.
func (o *Options) mqttConfig() broker.MQTTConfig {
	return broker.MQTTConfig{
		Broker:         o.MQTT.Broker,
		ClientID:       o.MQTT.ClientID,
		Username:       o.MQTT.Username,
		Password:       o.MQTT.Password,
		QoS:            o.MQTT.QoS,
		KeepAlive:      o.MQTT.KeepAlive.Duration,
		ConnectTimeout: o.MQTT.ConnectTimeout.Duration,
	}
}

// Config connects the message bus and builds the unit supervisors. Requests
// arriving before the units are registered are dropped by the mux.
func (o *Options) Config(opts ...device.Option) (*config.Config, error) {
	c := &config.Config{}
	mux := broker.NewMux(broker.Topics{Base: o.MQTT.BaseTopic})

	client, err := broker.ConnectMQTT(o.mqttConfig(), mux)
	if err != nil {
		return nil, err
	}
	c.MQTTClient = client
	c.Replies = broker.NewReplies()
	c.Outbound = broker.NewOutbound(broker.NewMQTTSink(client, o.MQTT.QoS), c.Replies, o.MQTT.OutboundSize)

	opts = append([]device.Option{device.WithInboundSize(o.MQTT.InboundSize)}, opts...)
	mgr, err := device.NewManager(o.Units, mux, c.Outbound, opts...)
	if err != nil {
		broker.DisconnectMQTT(client)
		return nil, err
	}
	c.DeviceMgr = mgr
	c.GatewayMgr = gateway.NewGatewayManager(gateway.WithName(o.Name))
	return c, nil
}
