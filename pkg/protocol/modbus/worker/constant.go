package worker

import (
	"errors"
	"time"
)

var (
	ErrDisconnected  = errors.New("unit disconnected")
	ErrUnknownTarget = errors.New("command addresses an unknown register")
	ErrQueueFull     = errors.New("worker command queue full")
)

const (
	DefaultQueueSize      = 64
	DefaultCommandQuantum = 5 * time.Millisecond
	DefaultRetryQuantum   = time.Millisecond

	// DefaultRoundTTL bounds how long a component get waits for its siblings.
	DefaultRoundTTL = 30 * time.Second

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)
