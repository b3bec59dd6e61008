package constant

import "errors"

var (
	ErrUnitType       = errors.New("unsupported unit protocol")
	ErrConnectUnit    = errors.New("unable to connect to unit")
	ErrUnitEmptyGroup = errors.New("unit register group emptied")
)

const (
	// UnknownName is emitted whenever a bit or enum value has no configured name.
	UnknownName = "Unknown"
)
