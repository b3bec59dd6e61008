package device

import (
	"context"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"k8s.io/klog/v2"
	"modbusbridge/pkg/broker"
	"modbusbridge/pkg/metrics"
	"modbusbridge/pkg/protocol/modbus/transport"
	"modbusbridge/pkg/protocol/modbus/worker"
	"modbusbridge/pkg/runtime/constant"
	"strconv"
	"sync"
	"time"
)

// Component is a worker.Component plus the workers feeding it.
type Component struct {
	*worker.Component
	Heartbeat time.Duration
	Workers   []*worker.Worker
}

// Alive counts the running workers of the component.
func (c *Component) Alive() int {
	n := 0
	for _, w := range c.Workers {
		if w.Running() {
			n++
		}
	}
	return n
}

// pools hands workers the pool of the current connection cycle.
type pools struct {
	mu   sync.RWMutex
	pool *transport.Pool
}

func (p *pools) Do(id int, fn func(transport.Client) error) error {
	p.mu.RLock()
	pool := p.pool
	p.mu.RUnlock()
	if pool == nil {
		return transport.ErrPoolClosed
	}
	return pool.Do(id, fn)
}

func (p *pools) swap(pool *transport.Pool) *transport.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.pool
	p.pool = pool
	return old
}

// Unit is one hardware unit with everything needed to supervise it.
type Unit struct {
	Name              string
	Protocol          string
	Connections       int
	ReconnectInterval time.Duration
	Dial              transport.Dialer
	Workers           []*worker.Worker
	Components        []*Component
	Listener          *broker.Listener

	topics broker.Topics
	out    broker.Transport
	pools  *pools
	status atomic.Int32
	cycles atomic.Uint64
}

func (u *Unit) Status() Status {
	return Status(u.status.Load())
}

// Cycles is the number of connection attempts made so far.
func (u *Unit) Cycles() uint64 {
	return u.cycles.Load()
}

func (u *Unit) setStatus(s Status) {
	if Status(u.status.Swap(int32(s))) == s {
		return
	}
	metrics.SetUnitOnline(u.Name, s == StatusOnline)
	klog.V(2).InfoS("Unit status changed", "unit", u.Name, "status", s)
	buf := make([]byte, 0, 96)
	buf = append(buf, `{"status":`...)
	buf = strconv.AppendQuote(buf, s.String())
	buf = append(buf, `,"Timestamp":"`...)
	buf = time.Now().UTC().AppendFormat(buf, timestampLayout)
	buf = append(buf, `"}`...)
	u.out.Publish(u.topics.Status(u.Name), buf)
}

// connect runs one connection cycle: open the pool, run workers and the
// listener until the first worker exits or ctx ends, then tear down.
func (u *Unit) connect(ctx context.Context) {
	if u.cycles.Inc() > 1 {
		metrics.IncReconnect(u.Name)
	}
	u.setStatus(StatusConnecting)
	pool, err := transport.NewPool(u.Connections, u.Dial)
	if err != nil {
		klog.V(1).InfoS("Failed to connect unit", "unit", u.Name, "protocol", u.Protocol, "err", errors.Wrap(constant.ErrConnectUnit, err.Error()))
		u.setStatus(StatusDisconnected)
		return
	}
	u.pools.swap(pool)
	for _, c := range u.Components {
		c.Publish.Reset()
		c.Get.Reset()
	}
	u.setStatus(StatusOnline)

	cctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	exits := make(chan error, len(u.Workers))
	wg.Add(1)
	go func() {
		defer wg.Done()
		u.Listener.Run(cctx)
	}()
	for _, w := range u.Workers {
		wg.Add(1)
		go func(w *worker.Worker) {
			defer wg.Done()
			metrics.AddWorkersAlive(u.Name, 1)
			defer metrics.AddWorkersAlive(u.Name, -1)
			exits <- w.Run(cctx)
		}(w)
	}

	select {
	case err = <-exits:
	case <-ctx.Done():
	}
	cancel()
	wg.Wait()
	if err := u.pools.swap(nil).Close(); err != nil {
		klog.V(3).InfoS("Failed to close unit connections", "unit", u.Name, "err", err)
	}
	if ctx.Err() != nil {
		u.setStatus(StatusStopped)
		return
	}
	klog.V(1).InfoS("Unit disconnected, reconnecting", "unit", u.Name, "after", u.ReconnectInterval, "err", err)
	u.setStatus(StatusDisconnected)
}
