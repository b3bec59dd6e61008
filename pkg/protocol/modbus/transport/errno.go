package transport

import (
	"errors"
	"net"
)

// IsFatal reports whether err means the unit has to be reconnected: the peer
// reset the connection, or it cannot be connected at all. Everything else is
// transient.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPoolClosed) {
		return true
	}
	for _, errno := range fatalErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
