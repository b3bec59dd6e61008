package device

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"modbusbridge/pkg/broker"
	modbus "modbusbridge/pkg/protocol/modbus/runtime"
	"modbusbridge/pkg/runtime/constant"
	v1 "modbusbridge/pkg/v1"
	"sigs.k8s.io/yaml"
	"testing"
	"time"
)

const unitYAML = `
name: plc1
protocol: tcp
address:
  location: 127.0.0.1
slave: 3
components:
- name: pump
  heartbeat: 1s
  groups:
  - kind: holding_registers
    period: 10ms
    registers:
    - id: speed
      address: 0
    - id: total
      address: 1
      size: 2
      type: float
    - id: flags
      address: 3
      bitKind: individual_bits
      bits:
      - begin: 3
        id: fault
        name: Fault
      - begin: 0
        id: run
        name: Running
  - kind: coils
    period: 20ms
    registers:
    - id: enable
      address: 10
`

type nopTransport struct{}

func (nopTransport) Publish(string, []byte)   {}
func (nopTransport) SendReply(string, []byte) {}

func loadUnit(t *testing.T, doc string) *v1.Unit {
	u := &v1.Unit{}
	require.NoError(t, yaml.Unmarshal([]byte(doc), u))
	return u
}

func newTestManager(t *testing.T, units ...*v1.Unit) (*Manager, error) {
	return NewManager(units, broker.NewMux(broker.Topics{Base: "site"}), nopTransport{}, WithDialer(fakeDialer(newFakeClient(nil))))
}

func TestNewManagerFromYAML(t *testing.T) {
	u := loadUnit(t, unitYAML)
	assert.Equal(t, constant.HoldingRegister, *u.Components[0].Groups[0].Kind)
	assert.Equal(t, 10*time.Millisecond, u.Components[0].Groups[0].Period.Duration)

	m, err := newTestManager(t, u)
	require.NoError(t, err)
	require.Len(t, m.Units(), 1)
	unit := m.Units()[0]
	require.Len(t, unit.Workers, 2)
	require.Len(t, unit.Components, 1)
	assert.Equal(t, "site/components/pump", unit.Components[0].Topic)
	assert.Equal(t, time.Second, unit.Components[0].Heartbeat)
	assert.Equal(t, v1.DefaultReconnectInterval, unit.ReconnectInterval)

	regs := unit.Workers[0]
	assert.Equal(t, uint8(3), regs.Slave)
	assert.Equal(t, uint16(0), regs.Start)
	assert.Equal(t, uint16(4), regs.Count)
	assert.Equal(t, 0, regs.Slot)
	coils := unit.Workers[1]
	assert.Equal(t, constant.Coil, coils.Kind)
	assert.Equal(t, uint16(10), coils.Start)
	assert.Equal(t, uint16(1), coils.Count)
	assert.Equal(t, 1, coils.Slot)
	assert.Equal(t, 1, coils.ID)

	route, ok := m.Router().Route("pump")
	require.True(t, ok)
	assert.Equal(t, []string{"enable", "fault", "flags", "run", "speed", "total"}, route.IDs())
	run, _ := route.Lookup("run")
	assert.Equal(t, 2, run.Index)
	assert.Equal(t, 0, run.BitID)
	fault, _ := route.Lookup("fault")
	assert.Equal(t, 1, fault.BitID)
	flags, _ := route.Lookup("flags")
	assert.Equal(t, modbus.AllBits, flags.BitID)

	_, ok = m.Unit("plc1")
	assert.True(t, ok)
}

func TestSplitSpans(t *testing.T) {
	group := &v1.RegisterGroup{Kind: new(constant.RegisterKind), Period: metav1.Duration{Duration: time.Second}}
	*group.Kind = constant.HoldingRegister
	for i := 129; i >= 0; i-- {
		group.Registers = append(group.Registers, &v1.Register{ID: fmt.Sprintf("r%d", i), Address: uint16(i)})
	}
	u := &v1.Unit{
		Name:       "plc1",
		Protocol:   v1.ProtocolTCP,
		Address:    &v1.UnitAddress{Location: "127.0.0.1:502"},
		Components: []*v1.Component{{Name: "big", Groups: []*v1.RegisterGroup{group}}},
	}
	m, err := newTestManager(t, u)
	require.NoError(t, err)
	ws := m.Units()[0].Workers
	require.Len(t, ws, 2)
	assert.Equal(t, uint16(0), ws[0].Start)
	assert.Equal(t, uint16(125), ws[0].Count)
	assert.Equal(t, uint16(125), ws[1].Start)
	assert.Equal(t, uint16(5), ws[1].Count)
	assert.Equal(t, 2, m.Units()[0].Components[0].Publish.Expected())
	for _, d := range ws[0].Descriptors[1:] {
		assert.Greater(t, d.Offset, ws[0].Descriptors[0].Offset)
	}
}

func TestNewManagerRejects(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"missing period": {`
name: plc1
protocol: tcp
address: {location: host}
components:
- name: pump
  groups:
  - kind: holding_registers
    registers: [{id: a, address: 0}]
`, "units[0].components[0].groups[0].period"},
		"float in one word": {`
name: plc1
protocol: tcp
address: {location: host}
components:
- name: pump
  groups:
  - kind: holding_registers
    period: 1s
    registers: [{id: a, address: 0, type: float}]
`, "units[0].components[0].groups[0].registers[0].float"},
		"unknown protocol": {`
name: plc1
protocol: udp
address: {location: host}
components:
- name: pump
  groups:
  - kind: coils
    period: 1s
    registers: [{id: a, address: 0}]
`, "units[0].protocol"},
		"duplicate id": {`
name: plc1
protocol: tcp
address: {location: host}
components:
- name: pump
  groups:
  - kind: coils
    period: 1s
    registers: [{id: a, address: 0}, {id: a, address: 1}]
`, "Duplicate value"},
		"overlapping bits": {`
name: plc1
protocol: tcp
address: {location: host}
components:
- name: pump
  groups:
  - kind: holding_registers
    period: 1s
    registers:
    - id: a
      address: 0
      bitKind: bit_field
      bits: [{begin: 0, end: 3}, {begin: 2, end: 4}]
`, "overlaps"},
		"missing kind": {`
name: plc1
protocol: tcp
address: {location: host}
components:
- name: pump
  groups:
  - period: 1s
    registers: [{id: a, address: 0}]
`, "kind"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newTestManager(t, loadUnit(t, c.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestNewManagerRejectsDuplicates(t *testing.T) {
	_, err := newTestManager(t, loadUnit(t, unitYAML), loadUnit(t, unitYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "units[1].name")
}

func TestDefaultDialer(t *testing.T) {
	_, err := DefaultDialer(&v1.Unit{Protocol: "udp", Address: &v1.UnitAddress{}}, time.Second)
	assert.ErrorIs(t, err, constant.ErrUnitType)
	d, err := DefaultDialer(&v1.Unit{Protocol: v1.ProtocolRTU, Address: &v1.UnitAddress{Location: "/dev/null"}}, time.Second)
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestHeartbeatPayload(t *testing.T) {
	now := time.Date(2023, 1, 2, 3, 4, 5, 6000000, time.UTC)
	assert.Equal(t, `{"alive":2,"workers":3,"Timestamp":"2023-01-02T03:04:05.006Z"}`, string(heartbeatPayload(2, 3, now)))
}
