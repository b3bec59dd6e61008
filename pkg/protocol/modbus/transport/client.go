package transport

import (
	"modbusbridge/pkg/runtime/constant"
)

// Client is one hardware connection. Implementations are not safe for
// concurrent use; the Pool serializes access.
type Client interface {
	// Read returns count words starting at start. Bit kinds return one word
	// per coil holding 0 or 1.
	Read(slave uint8, kind constant.RegisterKind, start, count uint16) ([]uint16, error)
	Write(slave uint8, kind constant.RegisterKind, offset uint16, words []uint16) error
	Close() error
}

// Dialer opens a new Client.
type Dialer func() (Client, error)
