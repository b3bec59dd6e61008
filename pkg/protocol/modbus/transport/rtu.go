package transport

import (
	"github.com/goburrow/modbus"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"io"
	"modbusbridge/pkg/runtime/constant"
	"modbusbridge/pkg/utils/binutil"
	"modbusbridge/pkg/utils/crcutil"
	"time"
)

type RTUConfig struct {
	Address  string
	BaudRate int
	DataBits int
	Parity   constant.Parity
	StopBits constant.StopBits
	Timeout  time.Duration
}

var ParityToParity = map[constant.Parity]serial.Parity{
	constant.NoParity:    serial.NoParity,
	constant.OddParity:   serial.OddParity,
	constant.EvenParity:  serial.EvenParity,
	constant.MarkParity:  serial.MarkParity,
	constant.SpaceParity: serial.SpaceParity,
}

var StopBitsToStopBits = map[constant.StopBits]serial.StopBits{
	constant.OneStopBit:           serial.OneStopBit,
	constant.OnePointFiveStopBits: serial.OnePointFiveStopBits,
	constant.TwoStopBits:          serial.TwoStopBits,
}

// Port is the part of serial.Port the RTU client uses.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

var _ Client = (*RTUClient)(nil)

// RTUClient frames Modbus RTU requests over a serial port.
type RTUClient struct {
	port    Port
	timeout time.Duration
	buf     []byte
}

func OpenRTU(cfg RTUConfig) (*RTUClient, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   ParityToParity[cfg.Parity],
		StopBits: StopBitsToStopBits[cfg.StopBits],
	}
	port, err := serial.Open(cfg.Address, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", cfg.Address)
	}
	return NewRTUClient(port, cfg.Timeout), nil
}

// RTUDialer returns a Dialer for the pool.
func RTUDialer(cfg RTUConfig) Dialer {
	return func() (Client, error) {
		return OpenRTU(cfg)
	}
}

func NewRTUClient(port Port, timeout time.Duration) *RTUClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RTUClient{port: port, timeout: timeout, buf: make([]byte, 256)}
}

func (c *RTUClient) Read(slave uint8, kind constant.RegisterKind, start, count uint16) ([]uint16, error) {
	fc, ok := constant.ReadFunctionCode[kind]
	if !ok {
		return nil, errors.Errorf("unknown register kind %d", kind)
	}
	// 01 03 00 00 00 0A C5 CD
	// slave, function, start address, quantity, crc
	req := make([]byte, 6, 8)
	req[0] = slave
	req[1] = fc
	binutil.WriteUint16(req[2:], start)
	binutil.WriteUint16(req[4:], count)

	dataLength := int(count) * 2
	if kind.IsBit() {
		dataLength = (int(count) + 7) / 8
	}
	resp, err := c.transact(req, dataLength+rtuNonDataLength)
	if err != nil {
		return nil, err
	}
	if int(resp[2]) != dataLength {
		return nil, ErrShortResponse
	}
	data := resp[3 : 3+dataLength]
	if kind.IsBit() {
		return binutil.UnpackBits(data, int(count)), nil
	}
	return binutil.BytesToWords(data), nil
}

func (c *RTUClient) Write(slave uint8, kind constant.RegisterKind, offset uint16, words []uint16) error {
	if len(words) == 0 {
		return nil
	}
	var req []byte
	switch {
	case kind == constant.Coil && len(words) == 1:
		req = make([]byte, 6, 8)
		req[1] = constant.FuncCodeWriteSingleCoil
		if words[0] != 0 {
			binutil.WriteUint16(req[4:], 0xFF00)
		}
	case kind == constant.HoldingRegister && len(words) == 1:
		req = make([]byte, 6, 8)
		req[1] = constant.FuncCodeWriteSingleRegister
		binutil.WriteUint16(req[4:], words[0])
	case kind == constant.Coil:
		packed := binutil.PackBits(words)
		req = make([]byte, 7, 9+len(packed))
		req[1] = constant.FuncCodeWriteMultipleCoils
		binutil.WriteUint16(req[4:], uint16(len(words)))
		req[6] = byte(len(packed))
		req = append(req, packed...)
	case kind == constant.HoldingRegister:
		data := binutil.WordsToBytes(words)
		req = make([]byte, 7, 9+len(data))
		req[1] = constant.FuncCodeWriteMultipleRegisters
		binutil.WriteUint16(req[4:], uint16(len(words)))
		req[6] = byte(len(data))
		req = append(req, data...)
	default:
		return ErrReadOnly
	}
	req[0] = slave
	binutil.WriteUint16(req[2:], offset)

	resp, err := c.transact(req, rtuEchoLength)
	if err != nil {
		return err
	}
	if binutil.ParseUint16(resp[2:]) != offset {
		return ErrBadResponse
	}
	return nil
}

// transact sends req and reads a response of expect bytes, or the shorter
// exception response.
func (c *RTUClient) transact(req []byte, expect int) ([]byte, error) {
	frame := crcutil.Append(req)
	_ = c.port.ResetInputBuffer()
	if _, err := c.port.Write(frame); err != nil {
		return nil, err
	}
	if err := c.port.SetReadTimeout(c.timeout); err != nil {
		return nil, err
	}
	if cap(c.buf) < expect {
		c.buf = make([]byte, expect)
	}
	resp := c.buf[:0]
	for len(resp) < expect {
		n, err := c.port.Read(c.buf[len(resp):expect])
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrTimeout
		}
		resp = c.buf[:len(resp)+n]
		if len(resp) >= rtuNonDataLength && resp[1]&0x80 != 0 {
			expect = rtuNonDataLength
		}
	}
	resp = resp[:expect]
	if !crcutil.Valid(resp) {
		return nil, ErrCrc
	}
	if resp[0] != req[0] || resp[1]&0x7F != req[1] {
		return nil, ErrBadResponse
	}
	if resp[1]&0x80 != 0 {
		return nil, &modbus.ModbusError{FunctionCode: resp[1], ExceptionCode: resp[2]}
	}
	return binutil.Dup(resp), nil
}

func (c *RTUClient) Close() error {
	return c.port.Close()
}
