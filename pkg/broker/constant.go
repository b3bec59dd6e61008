package broker

import (
	"errors"
	"time"
)

var (
	ErrNotConnected     = errors.New("message bus not connected")
	ErrUnknownComponent = errors.New("unknown component")
	ErrUnknownID        = errors.New("unknown register id")
	ErrBadBody          = errors.New("malformed request body")
	ErrNoReplyTopic     = errors.New("get request without reply topic")
)

const (
	DefaultOutboundSize = 1024
	DefaultInboundSize  = 256
	DefaultQoS          = 1

	// LocalPrefix marks reply topics answered in process instead of on the bus.
	LocalPrefix = "local/"

	mqttTimeout         = 1 * time.Second
	componentGetTimeout = 1 * time.Second
	disconnectQuiesce   = 2000
)
