package broker

import (
	"context"
	"k8s.io/klog/v2"
	"sync"
)

type inbound struct {
	req     Request
	payload []byte
}

// Listener applies the set and get requests of one hardware unit.
type Listener struct {
	unit   string
	router *Router
	queue  chan inbound
}

func NewListener(unit string, router *Router, size int) *Listener {
	if size <= 0 {
		size = DefaultInboundSize
	}
	return &Listener{unit: unit, router: router, queue: make(chan inbound, size)}
}

// Deliver queues a request without blocking the bus callback.
func (l *Listener) Deliver(req Request, payload []byte) bool {
	select {
	case l.queue <- inbound{req: req, payload: payload}:
		return true
	default:
		klog.V(2).InfoS("Inbound queue full, dropped request", "unit", l.unit, "component", req.Component, "id", req.ID)
		return false
	}
}

func (l *Listener) Run(ctx context.Context) {
	klog.V(3).InfoS("Listener started", "unit", l.unit)
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-l.queue:
			if err := l.handle(ctx, in); err != nil {
				klog.V(2).InfoS("Failed to apply request", "unit", l.unit, "component", in.req.Component, "id", in.req.ID, "err", err)
			}
		}
	}
}

func (l *Listener) handle(ctx context.Context, in inbound) error {
	switch in.req.Kind {
	case RequestGet:
		topic, err := replyTo(in.payload)
		if err != nil {
			return err
		}
		return l.router.Get(ctx, in.req.Component, in.req.ID, topic)
	case RequestSet:
		return l.router.SetPayload(in.req.Component, in.req.ID, in.payload)
	}
	return nil
}

// Mux hands bus messages to the listener of the unit owning the component.
type Mux struct {
	topics    Topics
	mu        sync.RWMutex
	listeners map[string]*Listener
}

func NewMux(topics Topics) *Mux {
	return &Mux{topics: topics, listeners: make(map[string]*Listener)}
}

func (m *Mux) Register(component string, l *Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[component] = l
}

func (m *Mux) Topics() Topics {
	return m.topics
}

func (m *Mux) Handle(topic string, payload []byte) {
	req, ok := m.topics.Parse(topic)
	if !ok {
		klog.V(4).InfoS("Ignored message on unknown topic", "topic", topic)
		return
	}
	m.mu.RLock()
	l, ok := m.listeners[req.Component]
	m.mu.RUnlock()
	if !ok {
		klog.V(3).InfoS("Ignored request for unknown component", "topic", topic, "component", req.Component)
		return
	}
	l.Deliver(req, payload)
}
