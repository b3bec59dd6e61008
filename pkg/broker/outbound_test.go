package broker

import (
	"context"
	"errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modbusbridge/pkg/metrics"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSink struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (s *fakeSink) Publish(topic string, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.topics = append(s.topics, topic)
	return nil
}

func (s *fakeSink) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.topics...)
}

func TestOutboundDropsWhenFull(t *testing.T) {
	sink := &fakeSink{}
	o := NewOutbound(sink, nil, 2)
	lost := testutil.ToFloat64(metrics.PublishCount.WithLabelValues(metrics.KindPublish, metrics.StatusLost))

	o.Publish("a", nil)
	o.Publish("b", nil)
	o.Publish("c", nil)
	assert.Equal(t, lost+1, testutil.ToFloat64(metrics.PublishCount.WithLabelValues(metrics.KindPublish, metrics.StatusLost)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { o.Run(ctx); close(done) }()
	require.Eventually(t, func() bool { return len(sink.sent()) == 2 }, time.Second, time.Millisecond)
	o.SendReply("reply/x", []byte("{}"))
	require.Eventually(t, func() bool { return len(sink.sent()) == 3 }, time.Second, time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, []string{"a", "b", "reply/x"}, sink.sent())
}

func TestOutboundFlushesOnStop(t *testing.T) {
	sink := &fakeSink{}
	o := NewOutbound(sink, nil, 8)
	o.Publish("a", nil)
	o.Publish("b", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o.Run(ctx)
	assert.Len(t, sink.sent(), 2)
}

func TestOutboundSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker down")}
	o := NewOutbound(sink, nil, 8)
	failed := testutil.ToFloat64(metrics.PublishCount.WithLabelValues(metrics.KindPublish, metrics.StatusFailed))
	o.Publish("a", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o.Run(ctx)
	assert.Equal(t, failed+1, testutil.ToFloat64(metrics.PublishCount.WithLabelValues(metrics.KindPublish, metrics.StatusFailed)))
}

func TestLocalReplies(t *testing.T) {
	sink := &fakeSink{}
	o := NewOutbound(sink, nil, 8)
	topic, ch, cancel := o.Replies().Await()
	defer cancel()
	assert.True(t, strings.HasPrefix(topic, LocalPrefix))

	o.SendReply(topic, []byte(`{"a":1}`))
	ctx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	payload, err := Wait(ctx, ch)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(payload))
	assert.Empty(t, sink.sent())

	// nobody waits any more
	assert.False(t, o.Replies().Resolve(topic, nil))
}

func TestRepliesCancel(t *testing.T) {
	r := NewReplies()
	topic, ch, cancel := r.Await()
	cancel()
	assert.False(t, r.Resolve(topic, []byte("x")))

	ctx, stop := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer stop()
	_, err := Wait(ctx, ch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
