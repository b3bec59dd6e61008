package v1

import "time"

const (
	ProtocolTCP = "tcp"
	ProtocolRTU = "rtu"
)

const (
	DefaultConnections       = 1
	DefaultReconnectInterval = 15 * time.Second
	DefaultTCPPort           = "502"
	DefaultBaudRate          = 9600
	DefaultDataBits          = 8
)
