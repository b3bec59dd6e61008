package config

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"modbusbridge/pkg/broker"
	"modbusbridge/pkg/device"
	"modbusbridge/pkg/gateway"
)

type Config struct {
	DeviceMgr  *device.Manager
	GatewayMgr *gateway.Manager
	Replies    *broker.Replies
	Outbound   *broker.Outbound
	MQTTClient mqtt.Client
}
