package transport

import (
	"bytes"
	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modbusbridge/pkg/runtime/constant"
	"modbusbridge/pkg/utils/crcutil"
	"testing"
	"time"
)

type fakePort struct {
	respond  func(req []byte) []byte
	requests [][]byte
	pending  bytes.Buffer
	chunk    int
	closed   bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	req := append([]byte(nil), b...)
	p.requests = append(p.requests, req)
	if p.respond != nil {
		p.pending.Write(p.respond(req))
	}
	return len(b), nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.pending.Len() == 0 {
		return 0, nil
	}
	if p.chunk > 0 && len(b) > p.chunk {
		b = b[:p.chunk]
	}
	return p.pending.Read(b)
}

func (p *fakePort) Close() error                       { p.closed = true; return nil }
func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }
func (p *fakePort) ResetInputBuffer() error            { return nil }

func TestRTURead(t *testing.T) {
	port := &fakePort{chunk: 3, respond: func(req []byte) []byte {
		return crcutil.Append([]byte{req[0], req[1], 4, 0x00, 0x01, 0x00, 0x02})
	}}
	c := NewRTUClient(port, time.Second)

	words, err := c.Read(7, constant.HoldingRegister, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2}, words)
	assert.Equal(t, crcutil.Append([]byte{7, 3, 0, 10, 0, 2}), port.requests[0])
}

func TestRTUReadCoils(t *testing.T) {
	port := &fakePort{respond: func(req []byte) []byte {
		return crcutil.Append([]byte{req[0], req[1], 1, 0b00000101})
	}}
	c := NewRTUClient(port, time.Second)

	words, err := c.Read(1, constant.Coil, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 0, 1}, words)
	assert.Equal(t, byte(1), port.requests[0][1])
}

func TestRTUException(t *testing.T) {
	port := &fakePort{respond: func(req []byte) []byte {
		return crcutil.Append([]byte{req[0], req[1] | 0x80, 2})
	}}
	c := NewRTUClient(port, time.Second)

	_, err := c.Read(1, constant.InputRegister, 0, 10)
	var me *modbus.ModbusError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, byte(2), me.ExceptionCode)
}

func TestRTUTimeoutAndCrc(t *testing.T) {
	c := NewRTUClient(&fakePort{}, time.Second)
	_, err := c.Read(1, constant.HoldingRegister, 0, 1)
	assert.ErrorIs(t, err, ErrTimeout)

	port := &fakePort{respond: func(req []byte) []byte {
		return []byte{req[0], req[1], 2, 0, 1, 0, 0}
	}}
	c = NewRTUClient(port, time.Second)
	_, err = c.Read(1, constant.HoldingRegister, 0, 1)
	assert.ErrorIs(t, err, ErrCrc)
}

func TestRTUWrite(t *testing.T) {
	echo := func(req []byte) []byte {
		return crcutil.Append(append([]byte(nil), req[:6]...))
	}
	port := &fakePort{respond: echo}
	c := NewRTUClient(port, time.Second)

	require.NoError(t, c.Write(2, constant.HoldingRegister, 5, []uint16{0x1234}))
	assert.Equal(t, crcutil.Append([]byte{2, 6, 0, 5, 0x12, 0x34}), port.requests[0])

	require.NoError(t, c.Write(2, constant.HoldingRegister, 5, []uint16{1, 2}))
	assert.Equal(t, crcutil.Append([]byte{2, 16, 0, 5, 0, 2, 4, 0, 1, 0, 2}), port.requests[1])

	require.NoError(t, c.Write(2, constant.Coil, 9, []uint16{1}))
	assert.Equal(t, crcutil.Append([]byte{2, 5, 0, 9, 0xFF, 0x00}), port.requests[2])

	require.NoError(t, c.Write(2, constant.Coil, 9, []uint16{1, 0, 1}))
	assert.Equal(t, crcutil.Append([]byte{2, 15, 0, 9, 0, 3, 1, 0b101}), port.requests[3])

	assert.ErrorIs(t, c.Write(2, constant.InputRegister, 0, []uint16{1}), ErrReadOnly)

	require.NoError(t, c.Close())
	assert.True(t, port.closed)
}
