package device

import (
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"modbusbridge/pkg/broker"
	modbus "modbusbridge/pkg/protocol/modbus/runtime"
	"modbusbridge/pkg/protocol/modbus/transport"
	"modbusbridge/pkg/protocol/modbus/worker"
	"modbusbridge/pkg/runtime/constant"
	v1 "modbusbridge/pkg/v1"
	"net"
	"sort"
	"time"
)

// DialerFunc opens the transports of a unit.
type DialerFunc func(u *v1.Unit, timeout time.Duration) (transport.Dialer, error)

// DefaultDialer dials Modbus TCP or RTU depending on the unit protocol.
func DefaultDialer(u *v1.Unit, timeout time.Duration) (transport.Dialer, error) {
	switch u.Protocol {
	case v1.ProtocolTCP:
		address := u.Address.Location
		if _, _, err := net.SplitHostPort(address); err != nil {
			address = net.JoinHostPort(address, v1.DefaultTCPPort)
		}
		return transport.TCPDialer(transport.TCPConfig{Address: address, Timeout: timeout}), nil
	case v1.ProtocolRTU:
		cfg := transport.RTUConfig{
			Address:  u.Address.Location,
			BaudRate: v1.DefaultBaudRate,
			DataBits: v1.DefaultDataBits,
			Timeout:  timeout,
		}
		if opt := u.Address.Option; opt != nil {
			if opt.BaudRate > 0 {
				cfg.BaudRate = opt.BaudRate
			}
			if opt.DataBits > 0 {
				cfg.DataBits = opt.DataBits
			}
			cfg.Parity = opt.Parity
			cfg.StopBits = opt.StopBits
		}
		return transport.RTUDialer(cfg), nil
	}
	return nil, errors.Wrap(constant.ErrUnitType, u.Protocol)
}

type builder struct {
	names   *modbus.Strings
	mux     *broker.Mux
	out     broker.Transport
	dial    DialerFunc
	inbound int
}

func (b *builder) unit(u *v1.Unit, path *field.Path, router *broker.Router) (*Unit, field.ErrorList) {
	allErrs := validateStruct(path, u)
	if len(allErrs) > 0 {
		return nil, allErrs
	}
	unit := &Unit{
		Name:              u.Name,
		Protocol:          u.Protocol,
		Connections:       u.Connections,
		ReconnectInterval: u.ReconnectInterval.Duration,
		topics:            b.mux.Topics(),
		out:               b.out,
		pools:             &pools{},
	}
	if unit.Connections <= 0 || u.Protocol == v1.ProtocolRTU {
		unit.Connections = v1.DefaultConnections
	}
	if unit.ReconnectInterval <= 0 {
		unit.ReconnectInterval = v1.DefaultReconnectInterval
	}
	unit.Listener = broker.NewListener(u.Name, router, b.inbound)

	minPeriod := time.Duration(0)
	for i, c := range u.Components {
		cp := path.Child("components").Index(i)
		comp, errs := b.component(unit, u, c, cp, router)
		allErrs = append(allErrs, errs...)
		if comp == nil {
			continue
		}
		for _, w := range comp.Workers {
			if minPeriod == 0 || w.Period < minPeriod {
				minPeriod = w.Period
			}
		}
		unit.Components = append(unit.Components, comp)
		b.mux.Register(comp.Name, unit.Listener)
	}
	if len(allErrs) > 0 {
		return nil, allErrs
	}

	dial, err := b.dial(u, transport.Timeout(minPeriod, u.Timeout.Duration))
	if err != nil {
		return nil, append(allErrs, field.NotSupported(path.Child("protocol"), u.Protocol, []string{v1.ProtocolTCP, v1.ProtocolRTU}))
	}
	unit.Dial = dial
	return unit, nil
}

func (b *builder) component(unit *Unit, u *v1.Unit, c *v1.Component, path *field.Path, router *broker.Router) (*Component, field.ErrorList) {
	var allErrs field.ErrorList
	route := broker.NewRoute(c.Name, u.Name)
	comp := &Component{
		Component: &worker.Component{Name: c.Name, Topic: c.Topic},
		Heartbeat: c.Heartbeat.Duration,
	}
	if len(comp.Topic) == 0 {
		comp.Topic = b.mux.Topics().Publish(c.Name)
	}

	for i, g := range c.Groups {
		gp := path.Child("groups").Index(i)
		if g.Period.Duration <= 0 {
			allErrs = append(allErrs, field.Required(gp.Child("period"), "poll period must be positive"))
			continue
		}
		if len(g.Registers) == 0 {
			allErrs = append(allErrs, field.Invalid(gp.Child("registers"), 0, constant.ErrUnitEmptyGroup.Error()))
			continue
		}
		slave := u.Slave
		if g.Slave != nil {
			slave = *g.Slave
		}
		ds := make([]*modbus.Descriptor, 0, len(g.Registers))
		regs := make(map[*modbus.Descriptor]*v1.Register, len(g.Registers))
		for j, r := range g.Registers {
			d, errs := b.descriptor(*g.Kind, r, gp.Child("registers").Index(j))
			allErrs = append(allErrs, errs...)
			if d != nil {
				ds = append(ds, d)
				regs[d] = r
			}
		}
		if len(allErrs) > 0 {
			continue
		}
		for _, span := range split(*g.Kind, ds) {
			cfg := worker.Config{
				ID:          len(unit.Workers),
				Slot:        len(comp.Workers),
				Slave:       slave,
				Kind:        *g.Kind,
				Start:       span[0].Offset,
				Count:       end(span) - span[0].Offset,
				Period:      g.Period.Duration,
				Descriptors: span,
				Names:       b.names,
				Component:   comp.Component,
			}
			w := worker.New(cfg, unit.pools, b.out)
			unit.Workers = append(unit.Workers, w)
			comp.Workers = append(comp.Workers, w)
			route.Workers = append(route.Workers, w)
			for idx, d := range span {
				allErrs = append(allErrs, b.addRoutes(route, w, idx, d, regs[d], gp)...)
			}
		}
	}
	if len(allErrs) > 0 {
		return nil, allErrs
	}
	n := len(comp.Workers)
	comp.Publish = worker.NewBarrier(c.Name, n, 0, b.out.Publish)
	comp.Get = worker.NewRounds(c.Name+"/get", n, 0, b.out.SendReply)
	route.Gets = comp.Get
	if err := router.Add(route); err != nil {
		allErrs = append(allErrs, field.Duplicate(path.Child("name"), c.Name))
	}
	return comp, allErrs
}

func (b *builder) addRoutes(route *broker.Route, w *worker.Worker, idx int, d *modbus.Descriptor, r *v1.Register, path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	if err := route.AddID(r.ID, broker.Target{Worker: w, Index: idx, BitID: modbus.AllBits}); err != nil {
		allErrs = append(allErrs, field.Duplicate(path.Child("registers").Key(r.ID), r.ID))
	}
	if d.Bits == nil || (d.BitKind != constant.IndividualBits && d.BitKind != constant.IndividualEnums) {
		return allErrs
	}
	d.Bits.Groups(func(first, last int) {
		for i := first; i <= last; i++ {
			e := &d.Bits.Entries[i]
			id, ok := b.names.Lookup(e.ID)
			if !ok || len(id) == 0 {
				continue
			}
			if err := route.AddID(id, broker.Target{Worker: w, Index: idx, BitID: first}); err != nil {
				allErrs = append(allErrs, field.Duplicate(path.Child("registers").Key(r.ID).Child("bits"), id))
			}
			return
		}
	})
	return allErrs
}

func (b *builder) descriptor(kind constant.RegisterKind, r *v1.Register, path *field.Path) (*modbus.Descriptor, field.ErrorList) {
	var allErrs field.ErrorList
	name, err := b.names.Intern(r.ID)
	if err != nil {
		return nil, append(allErrs, field.Invalid(path.Child("id"), r.ID, err.Error()))
	}
	d := &modbus.Descriptor{
		Name:           name,
		Kind:           kind,
		Offset:         r.Address,
		Size:           r.Size,
		WordSwapped:    r.WordSwapped,
		Signed:         r.Type == "signed",
		Float:          r.Type == "float",
		InvertMask:     r.InvertMask,
		CareMask:       r.CareMask,
		StartingBitPos: r.StartingBit,
		Scale:          r.Scale,
		Shift:          r.Shift,
		BitKind:        r.BitKind,
		Debounce:       r.Debounce.Duration,
	}
	if d.Size == 0 {
		d.Size = 1
	}
	if d.HasBits() {
		entries := make([]modbus.BitRange, 0, len(r.Bits))
		for _, br := range r.Bits {
			e := modbus.BitRange{BeginBit: br.Begin, EndBit: br.Last(), Value: br.Value}
			if e.Name, err = b.names.Intern(br.Name); err != nil {
				return nil, append(allErrs, field.Invalid(path.Child("bits"), br.Name, err.Error()))
			}
			if len(br.ID) > 0 {
				if e.ID, err = b.names.Intern(br.ID); err != nil {
					return nil, append(allErrs, field.Invalid(path.Child("bits"), br.ID, err.Error()))
				}
			}
			entries = append(entries, e)
		}
		tbl, err := modbus.NewBitRangeTable(d.BitKind, d.Width(), entries, r.IgnoreMask)
		if err != nil {
			return nil, append(allErrs, field.Invalid(path.Child("bits"), len(r.Bits), err.Error()))
		}
		d.Bits = tbl
	} else if len(r.Bits) > 0 {
		allErrs = append(allErrs, field.Forbidden(path.Child("bits"), "bit ranges need a bitKind"))
	}
	allErrs = append(allErrs, d.Validate(path)...)
	if len(allErrs) > 0 {
		return nil, allErrs
	}
	return d, nil
}

// split orders descriptors by offset and cuts them into spans a single read
// request can cover.
func split(kind constant.RegisterKind, ds []*modbus.Descriptor) [][]*modbus.Descriptor {
	sorted := make([]*modbus.Descriptor, len(ds))
	copy(sorted, ds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	limit := int(constant.MaxSpan[kind])
	var spans [][]*modbus.Descriptor
	var cur []*modbus.Descriptor
	for _, d := range sorted {
		if len(cur) > 0 && int(d.End())-int(cur[0].Offset) > limit {
			spans = append(spans, cur)
			cur = nil
		}
		cur = append(cur, d)
	}
	if len(cur) > 0 {
		spans = append(spans, cur)
	}
	return spans
}

func end(span []*modbus.Descriptor) uint16 {
	e := span[0].End()
	for _, d := range span[1:] {
		if d.End() > e {
			e = d.End()
		}
	}
	return e
}
