package device

import (
	"context"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
	"modbusbridge/pkg/broker"
	modbus "modbusbridge/pkg/protocol/modbus/runtime"
	v1 "modbusbridge/pkg/v1"
	"sync"
)

type Option func(*Manager)

// WithDialer replaces how unit transports are opened.
func WithDialer(dial DialerFunc) Option {
	return func(m *Manager) {
		m.dial = dial
	}
}

// WithInboundSize bounds the request queue of every unit listener.
func WithInboundSize(size int) Option {
	return func(m *Manager) {
		m.inbound = size
	}
}

// WithArenaCapacity bounds the bytes available for register names.
func WithArenaCapacity(capacity int) Option {
	return func(m *Manager) {
		m.names = modbus.NewStrings(capacity)
	}
}

// Manager supervises every configured hardware unit.
type Manager struct {
	units   []*Unit
	router  *broker.Router
	names   *modbus.Strings
	dial    DialerFunc
	inbound int
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewManager validates the units and builds their workers, routes and
// barriers. All configuration errors are reported together.
func NewManager(units []*v1.Unit, mux *broker.Mux, out broker.Transport, opts ...Option) (*Manager, error) {
	m := &Manager{
		router: broker.NewRouter(),
		dial:   DefaultDialer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.names == nil {
		m.names = modbus.NewStrings(0)
	}

	b := &builder{names: m.names, mux: mux, out: out, dial: m.dial, inbound: m.inbound}
	var allErrs field.ErrorList
	seen := make(map[string]bool, len(units))
	path := field.NewPath("units")
	for i, u := range units {
		up := path.Index(i)
		if u == nil {
			allErrs = append(allErrs, field.Required(up, ""))
			continue
		}
		if seen[u.Name] {
			allErrs = append(allErrs, field.Duplicate(up.Child("name"), u.Name))
			continue
		}
		seen[u.Name] = true
		unit, errs := b.unit(u, up, m.router)
		allErrs = append(allErrs, errs...)
		if unit != nil {
			m.units = append(m.units, unit)
		}
	}
	if len(allErrs) > 0 {
		return nil, allErrs.ToAggregate()
	}
	return m, nil
}

func (m *Manager) Router() *broker.Router {
	return m.router
}

func (m *Manager) Units() []*Unit {
	return m.units
}

func (m *Manager) Unit(name string) (*Unit, bool) {
	for _, u := range m.units {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

// Start launches one supervisor per unit and the component heartbeats.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	for _, u := range m.units {
		interval := u.ReconnectInterval
		if interval < minReconnectInterval {
			interval = minReconnectInterval
		}
		m.wg.Add(1)
		go func(u *Unit) {
			defer m.wg.Done()
			wait.UntilWithContext(ctx, u.connect, interval)
		}(u)
		for _, c := range u.Components {
			if c.Heartbeat <= 0 {
				continue
			}
			m.wg.Add(1)
			go func(u *Unit, c *Component) {
				defer m.wg.Done()
				u.heartbeat(ctx, c)
			}(u, c)
		}
		klog.V(2).InfoS("Unit supervisor started", "unit", u.Name, "workers", len(u.Workers), "components", len(u.Components))
	}
}

// Shutdown stops every unit and waits for the supervisors until ctx ends.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		klog.V(2).InfoS("Stopped all units")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
