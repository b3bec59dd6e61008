package broker

import (
	"context"
	"modbusbridge/pkg/utils/uuidutil"
	"sync"
)

// Replies routes local reply topics to in-process waiters.
type Replies struct {
	mu      sync.Mutex
	waiters map[string]chan []byte
}

func NewReplies() *Replies {
	return &Replies{waiters: make(map[string]chan []byte)}
}

// Await registers a fresh local reply topic. cancel must be called once the
// caller stops waiting.
func (r *Replies) Await() (topic string, ch <-chan []byte, cancel func()) {
	topic = LocalPrefix + uuidutil.ShortUUID()
	c := make(chan []byte, 1)
	r.mu.Lock()
	r.waiters[topic] = c
	r.mu.Unlock()
	return topic, c, func() {
		r.mu.Lock()
		delete(r.waiters, topic)
		r.mu.Unlock()
	}
}

// Resolve hands payload to the waiter of topic. Only the first reply counts.
func (r *Replies) Resolve(topic string, payload []byte) bool {
	r.mu.Lock()
	c, ok := r.waiters[topic]
	if ok {
		delete(r.waiters, topic)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	c <- payload
	return true
}

// Wait blocks for the reply on ch or until ctx ends.
func Wait(ctx context.Context, ch <-chan []byte) ([]byte, error) {
	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
