package transport

import (
	"errors"
	"time"
)

var (
	ErrPoolClosed    = errors.New("connection pool closed")
	ErrReadOnly      = errors.New("register kind is read only")
	ErrShortResponse = errors.New("modbus response shorter than requested")
	ErrBadResponse   = errors.New("modbus response does not match request")
	ErrCrc           = errors.New("modbus rtu crc mismatch")
	ErrTimeout       = errors.New("modbus rtu response timeout")
)

const (
	// DefaultTimeoutCeiling caps the per request timeout derived from a poll period.
	DefaultTimeoutCeiling = 2 * time.Second
	DefaultTimeout        = 500 * time.Millisecond

	rtuNonDataLength = 5
	rtuEchoLength    = 8
)

// Timeout derives a read timeout from a poll period.
func Timeout(period, ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		ceiling = DefaultTimeoutCeiling
	}
	if period <= 0 {
		return DefaultTimeout
	}
	if period > ceiling {
		return ceiling
	}
	return period
}
