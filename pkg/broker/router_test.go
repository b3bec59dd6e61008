package broker

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	modbus "modbusbridge/pkg/protocol/modbus/runtime"
	"modbusbridge/pkg/protocol/modbus/worker"
	"modbusbridge/pkg/runtime"
	"sync"
	"testing"
	"time"
)

type fakeWorker struct {
	mu   sync.Mutex
	cmds []worker.Command
	err  error
}

func (w *fakeWorker) Enqueue(cmd worker.Command) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.cmds = append(w.cmds, cmd)
	return nil
}

func (w *fakeWorker) EnqueueWait(_ context.Context, cmd worker.Command, _ time.Duration) error {
	return w.Enqueue(cmd)
}

func (w *fakeWorker) commands() []worker.Command {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]worker.Command(nil), w.cmds...)
}

func newTestRouter(t *testing.T) (*Router, *fakeWorker, *fakeWorker) {
	a, b := &fakeWorker{}, &fakeWorker{}
	rt := NewRoute("pump", "plc1")
	rt.Workers = []Enqueuer{a, b}
	require.NoError(t, rt.AddID("speed", Target{Worker: a, Index: 0, BitID: modbus.AllBits}))
	require.NoError(t, rt.AddID("run", Target{Worker: b, Index: 2, BitID: 1}))
	assert.Error(t, rt.AddID("run", Target{Worker: b}))

	r := NewRouter()
	require.NoError(t, r.Add(rt))
	assert.Error(t, r.Add(NewRoute("pump", "plc2")))
	return r, a, b
}

func TestRouterSet(t *testing.T) {
	r, a, b := newTestRouter(t)
	require.NoError(t, r.Set("pump", "speed", runtime.Unsigned(9)))
	assert.ErrorIs(t, r.Set("pump", "nope", runtime.Unsigned(1)), ErrUnknownID)
	assert.ErrorIs(t, r.Set("fan", "speed", runtime.Unsigned(1)), ErrUnknownComponent)

	err := r.SetMany("pump", map[string]interface{}{"run": true, "nope": 1, "speed": "x"})
	require.Error(t, err)

	cmds := a.commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, worker.CommandSet, cmds[0].Kind)
	assert.True(t, cmds[0].Value.EqualUnsigned(9))

	cmds = b.commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, 2, cmds[0].Index)
	assert.Equal(t, 1, cmds[0].BitID)
	assert.True(t, cmds[0].Value.EqualBool(true))

	assert.Equal(t, []string{"pump"}, r.Components())
	rt, ok := r.Route("pump")
	require.True(t, ok)
	assert.Equal(t, []string{"run", "speed"}, rt.IDs())
}

func TestRouterGet(t *testing.T) {
	r, a, b := newTestRouter(t)
	ctx := context.Background()
	require.NoError(t, r.Get(ctx, "pump", "run", "reply/1"))
	require.NoError(t, r.Get(ctx, "pump", "", "reply/2"))
	assert.ErrorIs(t, r.Get(ctx, "fan", "", "reply/3"), ErrUnknownComponent)

	require.Len(t, a.commands(), 1)
	assert.True(t, a.commands()[0].Component)
	cmds := b.commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, worker.Get(2, 1, "reply/1"), cmds[0])
	assert.True(t, cmds[1].Component)
	assert.Equal(t, "reply/2", cmds[1].ReplyTo)
}

type dropRecorder struct {
	dropped []uint64
}

func (d *dropRecorder) Drop(request uint64) {
	d.dropped = append(d.dropped, request)
}

func TestRouterComponentGetRequests(t *testing.T) {
	r, a, b := newTestRouter(t)
	rt, ok := r.Route("pump")
	require.True(t, ok)
	gets := &dropRecorder{}
	rt.Gets = gets
	ctx := context.Background()

	require.NoError(t, r.Get(ctx, "pump", "", "reply/1"))
	require.NoError(t, r.Get(ctx, "pump", "", "reply/2"))
	ac, bc := a.commands(), b.commands()
	require.Len(t, ac, 2)
	require.Len(t, bc, 2)
	assert.Equal(t, ac[0].Request, bc[0].Request)
	assert.Equal(t, ac[1].Request, bc[1].Request)
	assert.NotEqual(t, ac[0].Request, ac[1].Request)
	assert.Empty(t, gets.dropped)

	b.err = worker.ErrQueueFull
	assert.ErrorIs(t, r.Get(ctx, "pump", "", "reply/3"), worker.ErrQueueFull)
	ac = a.commands()
	require.Len(t, ac, 3)
	assert.Equal(t, []uint64{ac[2].Request}, gets.dropped)
}

func TestListenerDispatch(t *testing.T) {
	r, a, b := newTestRouter(t)
	mux := NewMux(Topics{Base: "site"})
	l := NewListener("plc1", r, 8)
	mux.Register("pump", l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	mux.Handle("site/set/components/pump/speed", []byte(`{"value": 12.5}`))
	mux.Handle("site/set/components/pump", []byte(`{"run": 0}`))
	mux.Handle("site/get/components/pump/speed", []byte(`{"replyto":"r"}`))
	mux.Handle("site/get/components/pump/speed", []byte(`{}`))
	mux.Handle("site/set/components/fan/speed", []byte(`1`))
	mux.Handle("elsewhere", []byte(`1`))

	require.Eventually(t, func() bool { return len(a.commands()) == 2 && len(b.commands()) == 1 }, time.Second, time.Millisecond)
	cmds := a.commands()
	assert.True(t, cmds[0].Value.EqualFloat(12.5))
	assert.Equal(t, worker.CommandGet, cmds[1].Kind)
	assert.Equal(t, "r", cmds[1].ReplyTo)
	assert.True(t, b.commands()[0].Value.EqualUnsigned(0))
}

func TestListenerDeliverFull(t *testing.T) {
	l := NewListener("plc1", NewRouter(), 1)
	assert.True(t, l.Deliver(Request{}, nil))
	assert.False(t, l.Deliver(Request{}, nil))
}
