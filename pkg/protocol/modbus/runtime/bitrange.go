package runtime

import (
	"fmt"
	"modbusbridge/pkg/runtime/constant"
	"sort"
)

// BitRange names a span of bits inside a register. Enumeration candidates
// sharing one span are stored contiguously and all carry GroupLast, the
// table index of the last candidate of that span.
type BitRange struct {
	BeginBit  uint8
	EndBit    uint8
	CareMask  uint64
	Value     uint64
	Name      StringHandle
	ID        StringHandle
	GroupLast uint16
}

// Extract returns the bits of raw covered by the range, shifted down to bit 0.
func (br *BitRange) Extract(raw uint64) uint64 {
	return (raw >> br.BeginBit) & br.CareMask
}

func (br *BitRange) sameSpan(o *BitRange) bool {
	return br.BeginBit == o.BeginBit && br.EndBit == o.EndBit
}

type BitRangeTable struct {
	Entries []BitRange
	// CareMask is the union of every bit the table interprets.
	CareMask uint64
	Width    uint8
}

// NewBitRangeTable orders entries by begin bit, fills in per-entry care masks
// and group bounds, and computes the overall care mask for kind. ignore lists
// bits a bit field never reports, not even as Unknown.
func NewBitRangeTable(kind constant.BitKind, width uint8, entries []BitRange, ignore uint64) (*BitRangeTable, error) {
	if width == 0 || width > 64 {
		return nil, fmt.Errorf("invalid register width %d", width)
	}
	t := &BitRangeTable{
		Entries: make([]BitRange, len(entries)),
		Width:   width,
	}
	copy(t.Entries, entries)
	sort.SliceStable(t.Entries, func(i, j int) bool {
		return t.Entries[i].BeginBit < t.Entries[j].BeginBit
	})

	full := widthMask(width)
	for i := range t.Entries {
		e := &t.Entries[i]
		if kind == constant.Enum {
			e.BeginBit, e.EndBit = 0, width-1
		}
		if e.BeginBit > e.EndBit || e.EndBit >= width {
			return nil, fmt.Errorf("bit range %d..%d outside %d bit register", e.BeginBit, e.EndBit, width)
		}
		if e.CareMask == 0 {
			e.CareMask = widthMask(e.EndBit - e.BeginBit + 1)
		}
	}

	switch kind {
	case constant.IndividualBits, constant.BitField:
		var used uint64
		for i := range t.Entries {
			e := &t.Entries[i]
			m := e.CareMask << e.BeginBit
			if used&m != 0 {
				return nil, fmt.Errorf("bit range %d..%d overlaps another entry", e.BeginBit, e.EndBit)
			}
			used |= m
			e.GroupLast = uint16(i)
		}
		if kind == constant.BitField {
			t.CareMask = full &^ ignore
		} else {
			t.CareMask = used
		}
	case constant.IndividualEnums, constant.EnumField:
		for i := 0; i < len(t.Entries); {
			j := i
			for j+1 < len(t.Entries) && t.Entries[j+1].sameSpan(&t.Entries[i]) {
				j++
			}
			for k := i; k <= j; k++ {
				t.Entries[k].GroupLast = uint16(j)
			}
			t.CareMask |= t.Entries[i].CareMask << t.Entries[i].BeginBit
			i = j + 1
		}
	case constant.Enum:
		last := uint16(0)
		if len(t.Entries) > 0 {
			last = uint16(len(t.Entries) - 1)
		}
		for i := range t.Entries {
			t.Entries[i].GroupLast = last
		}
		t.CareMask = full
	default:
		return nil, fmt.Errorf("bit kind %s has no bit range table", kind)
	}
	return t, nil
}

// Find returns the index of the first entry that covers bit, or -1.
func (t *BitRangeTable) Find(bit uint8) int {
	for i := range t.Entries {
		e := &t.Entries[i]
		if bit < e.BeginBit {
			break
		}
		if bit <= e.EndBit {
			return i
		}
	}
	return -1
}

// Match scans the candidate group starting at first for one equal to sub.
func (t *BitRangeTable) Match(first int, sub uint64) int {
	last := int(t.Entries[first].GroupLast)
	for i := first; i <= last && i < len(t.Entries); i++ {
		if t.Entries[i].Value == sub {
			return i
		}
	}
	return -1
}

// Groups calls fn with the first and last index of every span in order.
func (t *BitRangeTable) Groups(fn func(first, last int)) {
	for i := 0; i < len(t.Entries); {
		last := int(t.Entries[i].GroupLast)
		if last < i {
			last = i
		}
		fn(i, last)
		i = last + 1
	}
}

func widthMask(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}
