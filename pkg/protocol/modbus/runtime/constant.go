package runtime

import "errors"

var (
	ErrArenaFull        = errors.New("string arena capacity exceeded")
	ErrInvalidHandle    = errors.New("string handle out of bounds")
	ErrUnsupportedValue = errors.New("value not supported by register")
	ErrShortBuffer      = errors.New("word buffer shorter than register size")
)

const (
	// DefaultArenaCapacity bounds the bytes interned for one unit.
	DefaultArenaCapacity = 64 * 1024
	maxStringLength      = 1<<16 - 1
)

// AllBits selects a whole-register operation instead of a single bit or enum slot.
const AllBits = -1
