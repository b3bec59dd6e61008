package worker

import (
	"context"
	"k8s.io/klog/v2"
	"sync"
	"time"
)

// FlushFunc receives a completed message. It must not block on I/O.
type FlushFunc func(topic string, payload []byte)

// Barrier merges one fragment per sibling worker into a single message. The
// goroutine that brings the round to its expected count flushes it.
type Barrier struct {
	mu          sync.Mutex
	name        string
	expected    int
	count       int
	fields      int
	contributed []bool
	buf         []byte
	topic       string
	retry       time.Duration
	flush       FlushFunc
	now         func() time.Time
}

func NewBarrier(name string, expected int, retry time.Duration, flush FlushFunc) *Barrier {
	if retry <= 0 {
		retry = DefaultRetryQuantum
	}
	b := &Barrier{
		name:        name,
		expected:    expected,
		contributed: make([]bool, expected),
		buf:         make([]byte, 0, 1024),
		retry:       retry,
		flush:       flush,
		now:         time.Now,
	}
	b.buf = append(b.buf, '{')
	return b
}

// Contribute adds the members produced by fragment for slot. topic is used
// for the flush when it is the first one seen this round. A slot that already
// contributed waits for the round to complete. It returns false only when ctx
// ends first.
func (b *Barrier) Contribute(ctx context.Context, slot int, topic string, fragment func(dst []byte) []byte) bool {
	warned := false
	for {
		b.mu.Lock()
		if !b.contributed[slot] {
			break
		}
		b.mu.Unlock()
		if !warned {
			klog.V(4).InfoS("Barrier round still open, waiting", "barrier", b.name, "slot", slot)
			warned = true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(b.retry):
		}
	}
	defer b.mu.Unlock()

	b.contributed[slot] = true
	b.count++
	if b.topic == "" {
		b.topic = topic
	}
	b.buf, b.fields = appendFragment(b.buf, b.fields, fragment)
	if b.count == b.expected {
		b.complete()
	}
	return true
}

func (b *Barrier) complete() {
	if b.fields > 0 && b.flush != nil {
		b.flush(b.topic, seal(b.buf, b.now()))
	}
	b.reset()
}

func (b *Barrier) reset() {
	b.count = 0
	b.fields = 0
	b.topic = ""
	b.buf = b.buf[:1]
	for i := range b.contributed {
		b.contributed[i] = false
	}
}

// Reset drops a partially contributed round.
func (b *Barrier) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

// Expected is the number of contributions per round.
func (b *Barrier) Expected() int {
	return b.expected
}

// appendFragment adds the members written by fragment to an open object,
// separating them from the fields already present.
func appendFragment(buf []byte, fields int, fragment func(dst []byte) []byte) ([]byte, int) {
	mark := len(buf)
	if fields > 0 {
		buf = append(buf, ',')
	}
	if fragment != nil {
		buf = fragment(buf)
	}
	switch {
	case len(buf) == mark+1 && fields > 0:
		buf = buf[:mark]
	case len(buf) > mark:
		fields++
	}
	return buf, fields
}

// seal closes the object with a timestamp and returns a copy of it.
func seal(buf []byte, now time.Time) []byte {
	buf = append(buf, `,"Timestamp":"`...)
	buf = now.UTC().AppendFormat(buf, timestampLayout)
	buf = append(buf, `"}`...)
	payload := make([]byte, len(buf))
	copy(payload, buf)
	return payload
}
