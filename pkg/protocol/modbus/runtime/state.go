package runtime

import (
	"modbusbridge/pkg/runtime"
	"time"
)

// PendingWrite is a set staged by debounce.
type PendingWrite struct {
	Value runtime.Value
	BitID int
}

// State is the cache one worker keeps for its span. It is owned by that
// worker; the publish barrier only reads it while the worker holds the
// component lock.
type State struct {
	Base    uint16
	Raw     []uint16
	Prev    []uint64
	Staged  []uint64
	Decoded []runtime.Value
	Changed Mask
	// ChangedBits holds the interpreted bits that moved in the last update.
	ChangedBits   []uint64
	Pending       Mask
	PendingValues []PendingWrite
	LastWrite     []time.Time

	primed bool
}

func NewState(base uint16, span uint16, decodes int) *State {
	return &State{
		Base:          base,
		Raw:           make([]uint16, span),
		Prev:          make([]uint64, decodes),
		Staged:        make([]uint64, decodes),
		Decoded:       make([]runtime.Value, decodes),
		Changed:       NewMask(decodes),
		ChangedBits:   make([]uint64, decodes),
		Pending:       NewMask(decodes),
		PendingValues: make([]PendingWrite, decodes),
		LastWrite:     make([]time.Time, decodes),
	}
}

// Words returns the slice of Raw that backs d.
func (s *State) Words(d *Descriptor) []uint16 {
	lo := int(d.Offset - s.Base)
	hi := lo + int(d.Size)
	if lo < 0 || hi > len(s.Raw) {
		return nil
	}
	return s.Raw[lo:hi]
}

// Update decodes every descriptor from Raw and records what changed since
// the previous update. The first update reports everything. Staged follows
// the hardware except while a write is pending.
func (s *State) Update(ds []*Descriptor) bool {
	s.Changed.Reset()
	for i, d := range ds {
		words := s.Words(d)
		raw := Raw(words, d)
		v := Decode(words, d)
		switch {
		case !s.primed:
			s.ChangedBits[i] = AllChanged
		case d.HasBits():
			s.ChangedBits[i] = BitsChanged(raw, s.Prev[i], d.Bits)
		case !v.Equal(s.Decoded[i]):
			s.ChangedBits[i] = AllChanged
		default:
			s.ChangedBits[i] = 0
		}
		if s.ChangedBits[i] != 0 {
			s.Changed.Set(i)
		}
		s.Prev[i] = raw
		// a debounced write still owns the bits it staged
		if !s.Pending.Test(i) {
			s.Staged[i] = raw
		}
		s.Decoded[i] = v
	}
	s.primed = true
	return s.Changed.Any()
}

// Stage records v as the latest pending write for decode i.
func (s *State) Stage(i int, v runtime.Value, bitID int) {
	s.Pending.Set(i)
	s.PendingValues[i] = PendingWrite{Value: v, BitID: bitID}
}

// Due reports whether decode i may be written at now under debounce.
func (s *State) Due(i int, debounce time.Duration, now time.Time) bool {
	return debounce <= 0 || s.LastWrite[i].IsZero() || now.Sub(s.LastWrite[i]) >= debounce
}
