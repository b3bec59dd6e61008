package crcutil

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestCheckCrc16sum(t *testing.T) {
	// 01 03 00 00 00 0A C5 CD
	frame := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}
	assert.Equal(t, uint16(0xCDC5), CheckCrc16sum(frame))

	full := Append(frame)
	assert.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}, full)
	assert.True(t, Valid(full))

	full[2] = 0x01
	assert.False(t, Valid(full))
	assert.False(t, Valid([]byte{0x01}))
}
