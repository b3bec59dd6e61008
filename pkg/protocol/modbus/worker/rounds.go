package worker

import (
	"k8s.io/klog/v2"
	"sync"
	"time"
)

// Rounds merges the fragments sibling workers send in answer to component
// get requests. Every request has its own round, so siblings whose queues
// are out of step still answer the request they were asked.
type Rounds struct {
	mu       sync.Mutex
	name     string
	expected int
	ttl      time.Duration
	rounds   map[uint64]*round
	flush    FlushFunc
	now      func() time.Time
}

type round struct {
	topic       string
	contributed []bool
	count       int
	fields      int
	buf         []byte
	opened      time.Time
	// dropped rounds swallow late contributions until they expire.
	dropped bool
}

func NewRounds(name string, expected int, ttl time.Duration, flush FlushFunc) *Rounds {
	if ttl <= 0 {
		ttl = DefaultRoundTTL
	}
	return &Rounds{
		name:     name,
		expected: expected,
		ttl:      ttl,
		rounds:   make(map[uint64]*round),
		flush:    flush,
		now:      time.Now,
	}
}

// Contribute adds the members produced by fragment for slot to the round of
// request. It never blocks on sibling workers. A repeated contribution from
// the same slot is ignored.
func (r *Rounds) Contribute(slot int, request uint64, topic string, fragment func(dst []byte) []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.expire(now)

	rd, ok := r.rounds[request]
	if !ok {
		rd = &round{
			topic:       topic,
			contributed: make([]bool, r.expected),
			buf:         append(make([]byte, 0, 256), '{'),
			opened:      now,
		}
		r.rounds[request] = rd
	}
	if rd.dropped {
		klog.V(4).InfoS("Ignored contribution to a dropped get round", "rounds", r.name, "request", request, "slot", slot)
		return
	}
	if slot < 0 || slot >= len(rd.contributed) || rd.contributed[slot] {
		klog.V(4).InfoS("Ignored repeated get contribution", "rounds", r.name, "request", request, "slot", slot)
		return
	}
	rd.contributed[slot] = true
	rd.count++
	rd.buf, rd.fields = appendFragment(rd.buf, rd.fields, fragment)
	if rd.count < r.expected {
		return
	}
	delete(r.rounds, request)
	if rd.fields > 0 && r.flush != nil {
		r.flush(rd.topic, seal(rd.buf, now))
	}
}

// Drop abandons the round of request. Contributions that still arrive for it
// are discarded.
func (r *Rounds) Drop(request uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop(request, r.now())
}

func (r *Rounds) drop(request uint64, now time.Time) {
	rd, ok := r.rounds[request]
	if !ok {
		rd = &round{opened: now}
		r.rounds[request] = rd
	}
	rd.dropped = true
	rd.buf = nil
}

// Reset drops every open round.
func (r *Rounds) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for request := range r.rounds {
		r.drop(request, now)
	}
}

// Open is the number of rounds still waiting for contributions.
func (r *Rounds) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rd := range r.rounds {
		if !rd.dropped {
			n++
		}
	}
	return n
}

func (r *Rounds) expire(now time.Time) {
	for request, rd := range r.rounds {
		if now.Sub(rd.opened) < r.ttl {
			continue
		}
		if !rd.dropped {
			klog.V(3).InfoS("Get round expired before every worker answered", "rounds", r.name, "request", request, "answered", rd.count, "expected", r.expected)
		}
		delete(r.rounds, request)
	}
}
