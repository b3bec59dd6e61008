package transport

import (
	"github.com/goburrow/modbus"
	"github.com/pkg/errors"
	"io"
	"k8s.io/klog/v2"
	"modbusbridge/pkg/runtime/constant"
	"modbusbridge/pkg/utils/binutil"
	"time"
)

type TCPConfig struct {
	Address     string
	Timeout     time.Duration
	IdleTimeout time.Duration
}

var _ Client = (*TCPClient)(nil)

// TCPClient speaks Modbus TCP through goburrow/modbus.
type TCPClient struct {
	address string
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

func DialTCP(cfg TCPConfig) (*TCPClient, error) {
	h := modbus.NewTCPClientHandler(cfg.Address)
	h.Timeout = cfg.Timeout
	if h.Timeout <= 0 {
		h.Timeout = DefaultTimeout
	}
	if cfg.IdleTimeout > 0 {
		h.IdleTimeout = cfg.IdleTimeout
	}
	if err := h.Connect(); err != nil {
		return nil, errors.Wrapf(err, "connect %s", cfg.Address)
	}
	return &TCPClient{
		address: cfg.Address,
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// TCPDialer returns a Dialer for the pool.
func TCPDialer(cfg TCPConfig) Dialer {
	return func() (Client, error) {
		return DialTCP(cfg)
	}
}

func (c *TCPClient) Read(slave uint8, kind constant.RegisterKind, start, count uint16) ([]uint16, error) {
	c.handler.SlaveId = slave
	var (
		data []byte
		err  error
	)
	switch kind {
	case constant.Coil:
		data, err = c.client.ReadCoils(start, count)
	case constant.DiscreteInput:
		data, err = c.client.ReadDiscreteInputs(start, count)
	case constant.HoldingRegister:
		data, err = c.client.ReadHoldingRegisters(start, count)
	case constant.InputRegister:
		data, err = c.client.ReadInputRegisters(start, count)
	default:
		return nil, errors.Errorf("unknown register kind %d", kind)
	}
	if err != nil {
		c.recover(err)
		return nil, err
	}
	if kind.IsBit() {
		if len(data)*8 < int(count) {
			return nil, ErrShortResponse
		}
		return binutil.UnpackBits(data, int(count)), nil
	}
	if len(data) < int(count)*2 {
		return nil, ErrShortResponse
	}
	return binutil.BytesToWords(data[:int(count)*2]), nil
}

func (c *TCPClient) Write(slave uint8, kind constant.RegisterKind, offset uint16, words []uint16) error {
	c.handler.SlaveId = slave
	var err error
	switch {
	case kind == constant.Coil && len(words) == 1:
		var v uint16
		if words[0] != 0 {
			v = 0xFF00
		}
		_, err = c.client.WriteSingleCoil(offset, v)
	case kind == constant.Coil:
		_, err = c.client.WriteMultipleCoils(offset, uint16(len(words)), binutil.PackBits(words))
	case kind == constant.HoldingRegister && len(words) == 1:
		_, err = c.client.WriteSingleRegister(offset, words[0])
	case kind == constant.HoldingRegister:
		_, err = c.client.WriteMultipleRegisters(offset, uint16(len(words)), binutil.WordsToBytes(words))
	default:
		return ErrReadOnly
	}
	if err != nil {
		c.recover(err)
	}
	return err
}

// recover drops a connection that can no longer be trusted to be in sync.
// The handler dials again on the next request.
func (c *TCPClient) recover(err error) {
	if isTimeout(err) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		klog.V(3).InfoS("Reset modbus tcp connection", "address", c.address, "err", err)
		_ = c.handler.Close()
	}
}

func (c *TCPClient) Close() error {
	return c.handler.Close()
}
