package worker

import (
	"context"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"k8s.io/klog/v2"
	"modbusbridge/pkg/metrics"
	modbus "modbusbridge/pkg/protocol/modbus/runtime"
	"modbusbridge/pkg/protocol/modbus/transport"
	"modbusbridge/pkg/runtime"
	"modbusbridge/pkg/runtime/constant"
	"time"
)

// Connections hands out the connection a worker polls through.
type Connections interface {
	Do(id int, fn func(transport.Client) error) error
}

// Replier sends the answer to a get request.
type Replier interface {
	SendReply(topic string, payload []byte)
}

// Component is the set of sibling workers publishing one combined message.
type Component struct {
	Name    string
	Topic   string
	Publish *Barrier
	Get     *Rounds
}

type Config struct {
	// ID picks the pool slot.
	ID int
	// Slot is the position of the worker inside its component.
	Slot        int
	Slave       uint8
	Kind        constant.RegisterKind
	Start       uint16
	Count       uint16
	Period      time.Duration
	Descriptors []*modbus.Descriptor
	Names       *modbus.Strings
	Component   *Component
	QueueSize   int
	// CommandQuantum bounds the sleep while debounced writes are pending.
	CommandQuantum time.Duration
}

// Worker polls one contiguous register span, publishes what changed and
// applies the set and get commands queued for it.
type Worker struct {
	Config
	conns     Connections
	replier   Replier
	state     *modbus.State
	queue     chan Command
	scratch   []uint16
	overshoot time.Duration
	polled    bool
	running   atomic.Bool
	now       func() time.Time
}

func New(cfg Config, conns Connections, replier Replier) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.CommandQuantum <= 0 {
		cfg.CommandQuantum = DefaultCommandQuantum
	}
	return &Worker{
		Config:  cfg,
		conns:   conns,
		replier: replier,
		state:   modbus.NewState(cfg.Start, cfg.Count, len(cfg.Descriptors)),
		queue:   make(chan Command, cfg.QueueSize),
		scratch: make([]uint16, 4),
		now:     time.Now,
	}
}

func (w *Worker) name() string {
	if w.Component != nil {
		return w.Component.Name
	}
	return ""
}

// Running reports whether Run is executing.
func (w *Worker) Running() bool {
	return w.running.Load()
}

// Enqueue hands cmd to the worker without blocking.
func (w *Worker) Enqueue(cmd Command) error {
	select {
	case w.queue <- cmd:
		return nil
	default:
		metrics.IncCommandFault(w.name(), metrics.ReasonQueueFull)
		return ErrQueueFull
	}
}

// EnqueueWait blocks until the worker accepts cmd, ctx ends or timeout passes.
func (w *Worker) EnqueueWait(ctx context.Context, cmd Command, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case w.queue <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		metrics.IncCommandFault(w.name(), metrics.ReasonQueueFull)
		return ErrQueueFull
	}
}

// Run loops until the unit disconnects or ctx ends. A disconnect returns an
// error matching ErrDisconnected; the caller reconnects the whole unit.
func (w *Worker) Run(ctx context.Context) error {
	w.running.Store(true)
	defer w.running.Store(false)
	w.overshoot = 0
	klog.V(3).InfoS("Worker started", "component", w.name(), "slot", w.Slot, "kind", w.Kind, "start", w.Start, "count", w.Count)
	for {
		start := w.now()
		if err := w.poll(); err != nil {
			klog.V(2).InfoS("Worker disconnected", "component", w.name(), "slot", w.Slot, "err", err)
			return err
		}
		if w.polled {
			w.state.Update(w.Descriptors)
		}
		if w.Component != nil && w.Component.Publish != nil {
			if !w.Component.Publish.Contribute(ctx, w.Slot, w.Component.Topic, w.appendChanged) {
				return ctx.Err()
			}
		}
		if err := w.drain(); err != nil {
			return err
		}
		if err := w.pause(ctx, start); err != nil {
			return err
		}
	}
}

func (w *Worker) poll() error {
	var words []uint16
	err := w.conns.Do(w.ID, func(c transport.Client) error {
		var err error
		words, err = c.Read(w.Slave, w.Kind, w.Start, w.Count)
		return err
	})
	if err != nil {
		metrics.IncPoll(w.name(), metrics.StatusFailed)
		if transport.IsFatal(err) {
			return errors.Wrapf(ErrDisconnected, "read %s %d+%d: %v", w.Kind, w.Start, w.Count, err)
		}
		klog.V(2).InfoS("Failed to poll, keeping cached values", "component", w.name(), "kind", w.Kind, "start", w.Start, "err", err)
		return nil
	}
	metrics.IncPoll(w.name(), metrics.StatusSuccess)
	copy(w.state.Raw, words)
	w.polled = true
	return nil
}

func (w *Worker) appendChanged(dst []byte) []byte {
	return w.appendFields(dst, false)
}

func (w *Worker) appendAll(dst []byte) []byte {
	return w.appendFields(dst, true)
}

func (w *Worker) appendFields(dst []byte, all bool) []byte {
	if !w.polled {
		return dst
	}
	n := 0
	for i, d := range w.Descriptors {
		changed := modbus.AllChanged
		if !all {
			if !w.state.Changed.Test(i) {
				continue
			}
			changed = w.state.ChangedBits[i]
		}
		if n > 0 {
			dst = append(dst, ',')
		}
		dst = modbus.AppendFields(dst, w.Names, d, w.state.Decoded[i], changed)
		n++
	}
	return dst
}

// drain handles every command queued right now.
func (w *Worker) drain() error {
	for {
		select {
		case cmd := <-w.queue:
			if err := w.handle(cmd); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (w *Worker) handle(cmd Command) error {
	switch cmd.Kind {
	case CommandSet:
		return w.set(cmd)
	case CommandGet:
		w.get(cmd)
	default:
		klog.V(2).InfoS("Dropped command of unknown kind", "component", w.name(), "kind", cmd.Kind)
	}
	return nil
}

func (w *Worker) fault(reason string, cmd Command, err error) {
	metrics.IncCommandFault(w.name(), reason)
	klog.V(2).InfoS("Dropped command", "component", w.name(), "slot", w.Slot, "index", cmd.Index, "bit", cmd.BitID, "reason", reason, "err", err)
}

func (w *Worker) set(cmd Command) error {
	i := cmd.Index
	if i < 0 || i >= len(w.Descriptors) {
		w.fault(metrics.ReasonUnknownTarget, cmd, ErrUnknownTarget)
		return nil
	}
	d := w.Descriptors[i]
	if !d.Kind.Writable() {
		w.fault(metrics.ReasonReadOnly, cmd, transport.ErrReadOnly)
		return nil
	}
	value := cmd.Value
	words := w.scratch[:d.Size]
	if cmd.BitID != modbus.AllBits {
		if !d.HasBits() || d.Bits == nil || cmd.BitID < 0 || cmd.BitID >= len(d.Bits.Entries) {
			w.fault(metrics.ReasonUnknownTarget, cmd, ErrUnknownTarget)
			return nil
		}
		e := &d.Bits.Entries[cmd.BitID]
		raw, err := modbus.EncodeBits(words, d, value, e.BeginBit, e.CareMask, w.state.Staged[i])
		if err != nil {
			w.fault(metrics.ReasonBadValue, cmd, err)
			return nil
		}
		// later bit sets in this cycle build on this one
		w.state.Staged[i] = raw
		value = runtime.Unsigned(raw)
	} else if _, err := modbus.EncodeWith(words, d, value, w.state.Staged[i]); err != nil {
		w.fault(metrics.ReasonBadValue, cmd, err)
		return nil
	}

	if !w.state.Due(i, d.Debounce, w.now()) {
		w.state.Stage(i, value, modbus.AllBits)
		klog.V(4).InfoS("Staged debounced write", "component", w.name(), "index", i, "value", value)
		return nil
	}
	w.state.Pending.Clear(i)
	return w.write(i, d, value)
}

func (w *Worker) write(i int, d *modbus.Descriptor, value runtime.Value) error {
	words := w.scratch[:d.Size]
	raw, err := modbus.EncodeWith(words, d, value, w.state.Staged[i])
	if err != nil {
		w.fault(metrics.ReasonBadValue, Command{Index: i, BitID: modbus.AllBits}, err)
		return nil
	}
	err = w.conns.Do(w.ID, func(c transport.Client) error {
		return c.Write(w.Slave, d.Kind, d.Offset, words)
	})
	if err != nil {
		metrics.IncWrite(w.name(), metrics.StatusFailed)
		if transport.IsFatal(err) {
			return errors.Wrapf(ErrDisconnected, "write %s %d: %v", d.Kind, d.Offset, err)
		}
		klog.V(2).InfoS("Failed to write", "component", w.name(), "kind", d.Kind, "offset", d.Offset, "err", err)
		return nil
	}
	metrics.IncWrite(w.name(), metrics.StatusSuccess)
	w.state.Staged[i] = raw
	w.state.LastWrite[i] = w.now()
	klog.V(4).InfoS("Wrote register", "component", w.name(), "kind", d.Kind, "offset", d.Offset, "value", value)
	return nil
}

// flushPending writes staged values whose debounce interval has passed.
func (w *Worker) flushPending() error {
	if !w.state.Pending.Any() {
		return nil
	}
	now := w.now()
	for i, d := range w.Descriptors {
		if !w.state.Pending.Test(i) || !w.state.Due(i, d.Debounce, now) {
			continue
		}
		w.state.Pending.Clear(i)
		if err := w.write(i, d, w.state.PendingValues[i].Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) get(cmd Command) {
	if cmd.Component {
		if w.Component == nil || w.Component.Get == nil {
			w.reply(cmd.ReplyTo, w.wrap(w.appendAll))
			return
		}
		w.Component.Get.Contribute(w.Slot, cmd.Request, cmd.ReplyTo, w.appendAll)
		return
	}
	if cmd.Index == AllRegisters {
		w.reply(cmd.ReplyTo, w.wrap(w.appendAll))
		return
	}
	if cmd.Index < 0 || cmd.Index >= len(w.Descriptors) {
		w.fault(metrics.ReasonUnknownTarget, cmd, ErrUnknownTarget)
		w.reply(cmd.ReplyTo, []byte("{}"))
		return
	}
	d := w.Descriptors[cmd.Index]
	v := w.state.Decoded[cmd.Index]
	if cmd.BitID != modbus.AllBits && (d.Bits == nil || cmd.BitID < 0 || cmd.BitID >= len(d.Bits.Entries)) {
		w.fault(metrics.ReasonUnknownTarget, cmd, ErrUnknownTarget)
		w.reply(cmd.ReplyTo, []byte("{}"))
		return
	}
	w.reply(cmd.ReplyTo, w.wrap(func(dst []byte) []byte {
		if !w.polled {
			return dst
		}
		if cmd.BitID != modbus.AllBits {
			return modbus.AppendEntry(dst, w.Names, d, v, cmd.BitID)
		}
		return modbus.AppendFields(dst, w.Names, d, v, modbus.AllChanged)
	}))
}

func (w *Worker) wrap(fragment func([]byte) []byte) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, '{')
	buf = fragment(buf)
	return append(buf, '}')
}

func (w *Worker) reply(topic string, payload []byte) {
	if topic == "" || w.replier == nil {
		klog.V(4).InfoS("Get without reply topic", "component", w.name(), "slot", w.Slot)
		return
	}
	w.replier.SendReply(topic, payload)
}

// pause sleeps out the rest of the poll period, serving commands as they
// arrive. Time spent past the deadline is taken off the next period.
func (w *Worker) pause(ctx context.Context, start time.Time) error {
	deadline := start.Add(w.Period - w.overshoot)
	for {
		if err := w.flushPending(); err != nil {
			return err
		}
		remaining := deadline.Sub(w.now())
		if remaining <= 0 {
			w.overshoot = -remaining
			if w.overshoot > w.Period {
				w.overshoot = w.Period
			}
			metrics.SetOvershoot(w.name(), w.overshoot.Seconds())
			return nil
		}
		if w.state.Pending.Any() && remaining > w.CommandQuantum {
			remaining = w.CommandQuantum
		}
		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case cmd := <-w.queue:
			timer.Stop()
			if err := w.handle(cmd); err != nil {
				return err
			}
			if err := w.drain(); err != nil {
				return err
			}
		case <-timer.C:
		}
	}
}
