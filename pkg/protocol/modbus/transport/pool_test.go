package transport

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modbusbridge/pkg/runtime/constant"
	"net"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"
)

type nopClient struct {
	id     int
	closed bool
}

func (c *nopClient) Read(uint8, constant.RegisterKind, uint16, uint16) ([]uint16, error) {
	return []uint16{uint16(c.id)}, nil
}
func (c *nopClient) Write(uint8, constant.RegisterKind, uint16, []uint16) error { return nil }
func (c *nopClient) Close() error                                               { c.closed = true; return nil }

func TestPoolRoundRobin(t *testing.T) {
	a, b := &nopClient{id: 0}, &nopClient{id: 1}
	p := NewPoolFromClients(a, b)
	assert.Equal(t, 2, p.Len())

	for id, want := range []uint16{0, 1, 0, 1, 0} {
		err := p.Do(id, func(c Client) error {
			words, err := c.Read(1, constant.HoldingRegister, 0, 1)
			assert.Equal(t, want, words[0])
			return err
		})
		require.NoError(t, err)
	}
}

func TestPoolSerializesSlot(t *testing.T) {
	p := NewPoolFromClients(&nopClient{})
	conn, err := p.Acquire(0)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		c, err := p.Acquire(3)
		if err == nil {
			c.Release()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("slot acquired twice")
	case <-time.After(50 * time.Millisecond):
	}
	conn.Release()
	conn.Release()
	<-acquired
}

func TestPoolClose(t *testing.T) {
	a := &nopClient{}
	p := NewPoolFromClients(a)
	require.NoError(t, p.Close())
	assert.True(t, a.closed)
	require.NoError(t, p.Close())

	_, err := p.Acquire(0)
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.True(t, IsFatal(p.Do(0, func(Client) error { return nil })))
}

func TestNewPoolDialFailure(t *testing.T) {
	var mu sync.Mutex
	var opened []*nopClient
	dial := func() (Client, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(opened) == 2 {
			return nil, errors.New("refused")
		}
		c := &nopClient{}
		opened = append(opened, c)
		return c, nil
	}
	_, err := NewPool(3, dial)
	require.Error(t, err)
	for _, c := range opened {
		assert.True(t, c.closed)
	}
}

func TestIsFatal(t *testing.T) {
	reset := &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	timeout := &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}

	assert.True(t, IsFatal(reset))
	assert.True(t, IsFatal(refused))
	assert.False(t, IsFatal(timeout))
	assert.True(t, isTimeout(timeout))
	assert.False(t, IsFatal(ErrTimeout))
	assert.False(t, IsFatal(nil))
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, Timeout(0, 0))
	assert.Equal(t, 100*time.Millisecond, Timeout(100*time.Millisecond, 0))
	assert.Equal(t, DefaultTimeoutCeiling, Timeout(time.Minute, 0))
	assert.Equal(t, time.Second, Timeout(time.Minute, time.Second))
}
