package transport

import (
	"encoding/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"modbusbridge/pkg/runtime/constant"
	"net"
	"testing"
	"time"
)

// serveModbus answers read holding registers with address+i per word and
// echoes write requests.
func serveModbus(t *testing.T) (string, func()) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				header := make([]byte, 7)
				for {
					if _, err := io.ReadFull(conn, header); err != nil {
						return
					}
					pdu := make([]byte, int(binary.BigEndian.Uint16(header[4:]))-1)
					if _, err := io.ReadFull(conn, pdu); err != nil {
						return
					}
					var resp []byte
					switch pdu[0] {
					case 3:
						addr := binary.BigEndian.Uint16(pdu[1:])
						qty := binary.BigEndian.Uint16(pdu[3:])
						resp = []byte{3, byte(qty * 2)}
						for i := uint16(0); i < qty; i++ {
							resp = binary.BigEndian.AppendUint16(resp, addr+i)
						}
					default:
						resp = pdu[:5]
					}
					out := append([]byte(nil), header[:4]...)
					out = binary.BigEndian.AppendUint16(out, uint16(len(resp)+1))
					out = append(out, header[6])
					out = append(out, resp...)
					if _, err := conn.Write(out); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String(), func() { _ = ln.Close() }
}

func TestTCPClient(t *testing.T) {
	addr, stop := serveModbus(t)
	defer stop()

	c, err := DialTCP(TCPConfig{Address: addr, Timeout: time.Second})
	require.NoError(t, err)
	defer c.Close()

	words, err := c.Read(1, constant.HoldingRegister, 40, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{40, 41, 42}, words)

	require.NoError(t, c.Write(1, constant.HoldingRegister, 40, []uint16{7}))
	require.NoError(t, c.Write(1, constant.HoldingRegister, 40, []uint16{7, 8}))
	assert.ErrorIs(t, c.Write(1, constant.DiscreteInput, 0, []uint16{1}), ErrReadOnly)
}

func TestTCPRefusedIsFatal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = DialTCP(TCPConfig{Address: addr, Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}
