package broker

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	modbus "modbusbridge/pkg/protocol/modbus/runtime"
	"modbusbridge/pkg/protocol/modbus/worker"
	"modbusbridge/pkg/runtime"
	"sort"
	"time"
)

// Enqueuer is the command queue of one worker.
type Enqueuer interface {
	Enqueue(cmd worker.Command) error
	EnqueueWait(ctx context.Context, cmd worker.Command, timeout time.Duration) error
}

// Target is where an id lands: the worker owning the register, the register
// index inside that worker and, for addressable sub-ranges, the table entry.
type Target struct {
	Worker Enqueuer
	Index  int
	BitID  int
}

// Dropper abandons the reply round of a component get.
type Dropper interface {
	Drop(request uint64)
}

// Route holds every addressable id of one component.
type Route struct {
	Name    string
	Unit    string
	Workers []Enqueuer
	// Gets is told about component gets that not every worker accepted.
	Gets Dropper
	ids  map[string]Target
}

func NewRoute(name, unit string) *Route {
	return &Route{Name: name, Unit: unit, ids: make(map[string]Target)}
}

func (rt *Route) AddID(id string, t Target) error {
	if _, ok := rt.ids[id]; ok {
		return fmt.Errorf("component %s: duplicate id %q", rt.Name, id)
	}
	rt.ids[id] = t
	return nil
}

func (rt *Route) Lookup(id string) (Target, bool) {
	t, ok := rt.ids[id]
	return t, ok
}

// IDs lists the addressable ids in lexical order.
func (rt *Route) IDs() []string {
	ids := make([]string, 0, len(rt.ids))
	for id := range rt.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Router resolves component and id names to worker commands. It is built at
// configuration time and read only afterwards.
type Router struct {
	routes   map[string]*Route
	requests atomic.Uint64
}

func NewRouter() *Router {
	return &Router{routes: make(map[string]*Route)}
}

func (r *Router) Add(rt *Route) error {
	if _, ok := r.routes[rt.Name]; ok {
		return fmt.Errorf("duplicate component %q", rt.Name)
	}
	r.routes[rt.Name] = rt
	return nil
}

func (r *Router) Route(component string) (*Route, bool) {
	rt, ok := r.routes[component]
	return rt, ok
}

func (r *Router) Components() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Router) target(component, id string) (Target, error) {
	rt, ok := r.routes[component]
	if !ok {
		return Target{}, errors.Wrap(ErrUnknownComponent, component)
	}
	t, ok := rt.ids[id]
	if !ok {
		return Target{}, errors.Wrapf(ErrUnknownID, "%s/%s", component, id)
	}
	return t, nil
}

// Set queues a write of v to one id.
func (r *Router) Set(component, id string, v runtime.Value) error {
	t, err := r.target(component, id)
	if err != nil {
		return err
	}
	return t.Worker.Enqueue(worker.Set(t.Index, t.BitID, v))
}

// SetMany queues one write per member of values. Every member is tried;
// the failures are aggregated.
func (r *Router) SetMany(component string, values map[string]interface{}) error {
	if _, ok := r.routes[component]; !ok {
		return errors.Wrap(ErrUnknownComponent, component)
	}
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var errs []error
	for _, id := range ids {
		v, err := ParseValue(values[id])
		if err != nil {
			errs = append(errs, errors.Wrap(err, id))
			continue
		}
		if err := r.Set(component, id, v); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

// SetPayload decodes a set body and queues the writes it names. A body for
// the whole component is an object of ids; a body for one id is a bare value
// or {"value":x}.
func (r *Router) SetPayload(component, id string, payload []byte) error {
	body, err := decodeBody(payload)
	if err != nil {
		return err
	}
	if len(id) == 0 {
		values, ok := body.(map[string]interface{})
		if !ok {
			return errors.Wrap(ErrBadBody, "component set needs an object of ids")
		}
		return r.SetMany(component, values)
	}
	raw, err := singleValue(body)
	if err != nil {
		return err
	}
	v, err := ParseValue(raw)
	if err != nil {
		return err
	}
	return r.Set(component, id, v)
}

// Get queues a read of one id, or of the whole component when id is empty.
// The answer is sent to replyTo.
func (r *Router) Get(ctx context.Context, component, id, replyTo string) error {
	if len(id) > 0 {
		t, err := r.target(component, id)
		if err != nil {
			return err
		}
		return t.Worker.Enqueue(worker.Get(t.Index, t.BitID, replyTo))
	}
	rt, ok := r.routes[component]
	if !ok {
		return errors.Wrap(ErrUnknownComponent, component)
	}
	cmd := worker.Command{
		Kind:      worker.CommandGet,
		Index:     worker.AllRegisters,
		BitID:     modbus.AllBits,
		ReplyTo:   replyTo,
		Component: true,
		Request:   r.requests.Inc(),
	}
	// every sibling has to take part or the reply round never completes
	var errs []error
	for _, w := range rt.Workers {
		if err := w.EnqueueWait(ctx, cmd, componentGetTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && rt.Gets != nil {
		rt.Gets.Drop(cmd.Request)
	}
	return utilerrors.NewAggregate(errs)
}
