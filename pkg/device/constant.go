package device

import (
	"time"
)

type Status int32

const (
	StatusStopped Status = iota
	StatusConnecting
	StatusOnline
	StatusDisconnected
)

var StatusToString = map[Status]string{
	StatusStopped:      "stopped",
	StatusConnecting:   "connecting",
	StatusOnline:       "online",
	StatusDisconnected: "disconnected",
}

func (s Status) String() string {
	return StatusToString[s]
}

const (
	timestampLayout      = "2006-01-02T15:04:05.000Z07:00"
	minReconnectInterval = 10 * time.Millisecond
)
