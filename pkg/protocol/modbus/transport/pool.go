package transport

import (
	"go.uber.org/atomic"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
	"sync"
)

// Pool is a fixed set of connections of one hardware unit, one mutex each.
// Worker id modulo pool size picks the slot.
type Pool struct {
	slots  []*slot
	closed atomic.Bool
}

type slot struct {
	mu     sync.Mutex
	client Client
}

// Conn is a slot held by one worker until Release.
type Conn struct {
	Client
	slot     *slot
	released bool
}

func (c *Conn) Release() {
	if c.released {
		return
	}
	c.released = true
	c.slot.mu.Unlock()
}

// NewPool dials size connections. A failed dial closes the ones already open.
func NewPool(size int, dial Dialer) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	clients := make([]Client, 0, size)
	for i := 0; i < size; i++ {
		c, err := dial()
		if err != nil {
			for _, opened := range clients {
				_ = opened.Close()
			}
			return nil, err
		}
		clients = append(clients, c)
	}
	return NewPoolFromClients(clients...), nil
}

func NewPoolFromClients(clients ...Client) *Pool {
	p := &Pool{slots: make([]*slot, 0, len(clients))}
	for _, c := range clients {
		p.slots = append(p.slots, &slot{client: c})
	}
	return p
}

func (p *Pool) Len() int {
	return len(p.slots)
}

// Acquire locks the slot for id. The returned Conn must be released.
func (p *Pool) Acquire(id int) (*Conn, error) {
	if p.closed.Load() || len(p.slots) == 0 {
		return nil, ErrPoolClosed
	}
	if id < 0 {
		id = -id
	}
	s := p.slots[id%len(p.slots)]
	s.mu.Lock()
	if p.closed.Load() {
		s.mu.Unlock()
		return nil, ErrPoolClosed
	}
	return &Conn{Client: s.client, slot: s}, nil
}

// Do runs fn with the connection for id held.
func (p *Pool) Do(id int, fn func(Client) error) error {
	conn, err := p.Acquire(id)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn.Client)
}

// Close waits for in-flight requests and closes every connection.
func (p *Pool) Close() error {
	if !p.closed.CAS(false, true) {
		return nil
	}
	var errs []error
	for i, s := range p.slots {
		s.mu.Lock()
		if err := s.client.Close(); err != nil {
			klog.V(3).InfoS("Failed to close connection", "slot", i, "err", err)
			errs = append(errs, err)
		}
		s.mu.Unlock()
	}
	return utilerrors.NewAggregate(errs)
}
