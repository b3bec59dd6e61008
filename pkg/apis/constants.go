package apis

import (
	"errors"
	"time"
)

const (
	// HTTP Request Fields
	IfNoneMatch = "If-None-Match"

	// HTTP Response Fields
	ETag = "ETag"

	// Self-defined Fields
	Timeout = "timeout"

	DefaultReplyTimeout = 2 * time.Second
	MaxReplyTimeout     = 30 * time.Second
)

var (
	ErrInvalidValue = errors.New("invalid value")
	ErrReplyTimeout = errors.New("no reply from component")
)
