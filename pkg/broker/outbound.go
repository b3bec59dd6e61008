package broker

import (
	"context"
	"k8s.io/klog/v2"
	"modbusbridge/pkg/metrics"
	"strings"
)

// Transport is what workers and the supervisor send messages through.
type Transport interface {
	Publish(topic string, payload []byte)
	SendReply(topic string, payload []byte)
}

// Sink delivers one message to the bus.
type Sink interface {
	Publish(topic string, payload []byte) error
}

type message struct {
	kind    string
	topic   string
	payload []byte
}

// Outbound queues messages for a single sender goroutine so publishing never
// blocks a worker. A full queue drops the message.
type Outbound struct {
	sink    Sink
	replies *Replies
	queue   chan message
}

func NewOutbound(sink Sink, replies *Replies, size int) *Outbound {
	if size <= 0 {
		size = DefaultOutboundSize
	}
	if replies == nil {
		replies = NewReplies()
	}
	return &Outbound{
		sink:    sink,
		replies: replies,
		queue:   make(chan message, size),
	}
}

func (o *Outbound) Publish(topic string, payload []byte) {
	o.enqueue(message{kind: metrics.KindPublish, topic: topic, payload: payload})
}

// SendReply answers a get. Local reply topics go straight to their waiter.
func (o *Outbound) SendReply(topic string, payload []byte) {
	if strings.HasPrefix(topic, LocalPrefix) {
		if o.replies.Resolve(topic, payload) {
			metrics.IncMessage(metrics.KindReply, metrics.StatusSuccess)
		} else {
			metrics.IncMessage(metrics.KindReply, metrics.StatusLost)
			klog.V(3).InfoS("Reply without waiter", "topic", topic)
		}
		return
	}
	o.enqueue(message{kind: metrics.KindReply, topic: topic, payload: payload})
}

func (o *Outbound) enqueue(m message) {
	select {
	case o.queue <- m:
	default:
		metrics.IncMessage(m.kind, metrics.StatusLost)
		klog.V(1).InfoS("Outbound queue full, message lost", "topic", m.topic, "size", len(m.payload))
	}
}

// Replies is the waiter registry local reply topics resolve against.
func (o *Outbound) Replies() *Replies {
	return o.replies
}

// Run sends queued messages until ctx ends, then flushes what is left.
func (o *Outbound) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			o.drain()
			return
		case m := <-o.queue:
			o.send(m)
		}
	}
}

func (o *Outbound) drain() {
	for {
		select {
		case m := <-o.queue:
			o.send(m)
		default:
			return
		}
	}
}

func (o *Outbound) send(m message) {
	if err := o.sink.Publish(m.topic, m.payload); err != nil {
		metrics.IncMessage(m.kind, metrics.StatusFailed)
		klog.V(1).InfoS("Failed to publish MQTT, message lost", "topic", m.topic, "err", err)
		return
	}
	metrics.IncMessage(m.kind, metrics.StatusSuccess)
	klog.V(5).InfoS("Succeed to publish MQTT", "topic", m.topic, "data", string(m.payload))
}
