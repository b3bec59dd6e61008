package runtime

import (
	"math/bits"
	"modbusbridge/pkg/runtime"
	"modbusbridge/pkg/runtime/constant"
	"strconv"
	"unicode/utf8"
)

// AppendFields appends the JSON members describing v, without enclosing
// braces. changed selects which bits or sub-ranges the individual and
// field variants report; pass AllChanged for a full get.
func AppendFields(dst []byte, names *Strings, d *Descriptor, v runtime.Value, changed uint64) []byte {
	dst = appendName(dst, names, d.Name)
	if !d.HasBits() || d.Bits == nil {
		return v.AppendJSON(dst)
	}
	t := d.Bits
	raw := v.AsUnsigned()
	switch d.BitKind {
	case constant.IndividualBits:
		dst = strconv.AppendUint(dst, raw, 10)
		for i := range t.Entries {
			e := &t.Entries[i]
			if changed&(e.CareMask<<e.BeginBit) == 0 {
				continue
			}
			dst = append(dst, ',')
			dst = appendName(dst, names, e.ID)
			dst = strconv.AppendBool(dst, e.Extract(raw) != 0)
		}
	case constant.BitField:
		dst = append(dst, '[')
		first := true
		for set := raw & t.CareMask; set != 0; set &= set - 1 {
			bit := uint8(bits.TrailingZeros64(set))
			if !first {
				dst = append(dst, ',')
			}
			first = false
			name := unknownName
			if i := t.Find(bit); i >= 0 {
				name = names.bytes(t.Entries[i].Name)
			}
			dst = appendValueString(dst, uint64(bit), name)
		}
		dst = append(dst, ']')
	case constant.IndividualEnums:
		dst = strconv.AppendUint(dst, raw, 10)
		t.Groups(func(first, last int) {
			e := &t.Entries[first]
			if changed&(e.CareMask<<e.BeginBit) == 0 {
				return
			}
			dst = append(dst, ',')
			dst = appendEnumGroup(dst, names, t, raw, first)
		})
	case constant.EnumField:
		dst = append(dst, '[')
		n := 0
		t.Groups(func(first, last int) {
			e := &t.Entries[first]
			if changed&(e.CareMask<<e.BeginBit) == 0 {
				return
			}
			if n > 0 {
				dst = append(dst, ',')
			}
			n++
			sub := e.Extract(raw)
			dst = append(dst, `{"begin_bit":`...)
			dst = strconv.AppendUint(dst, uint64(e.BeginBit), 10)
			dst = append(dst, `,"end_bit":`...)
			dst = strconv.AppendUint(dst, uint64(e.EndBit), 10)
			dst = append(dst, `,"care_mask":`...)
			dst = strconv.AppendUint(dst, e.CareMask, 10)
			dst = append(dst, `,"value":`...)
			dst = strconv.AppendUint(dst, sub, 10)
			dst = append(dst, `,"string":`...)
			dst = appendString(dst, matchName(names, t, first, sub))
			dst = append(dst, '}')
		})
		dst = append(dst, ']')
	case constant.Enum:
		name := unknownName
		if len(t.Entries) > 0 {
			if i := t.Match(0, raw); i >= 0 {
				name = names.bytes(t.Entries[i].Name)
			}
		}
		dst = append(dst, '[')
		dst = appendValueString(dst, raw, name)
		dst = append(dst, ']')
	}
	return dst
}

// AllChanged reports every bit as changed.
const AllChanged = ^uint64(0)

// AppendEntry appends the member for one individually addressable table
// entry: a bit of an individual bits register or a sub-range of an
// individual enums register.
func AppendEntry(dst []byte, names *Strings, d *Descriptor, v runtime.Value, index int) []byte {
	t := d.Bits
	if t == nil || index < 0 || index >= len(t.Entries) {
		return dst
	}
	raw := v.AsUnsigned()
	e := &t.Entries[index]
	if d.BitKind == constant.IndividualBits {
		dst = appendName(dst, names, e.ID)
		return strconv.AppendBool(dst, e.Extract(raw) != 0)
	}
	return appendEnumGroup(dst, names, t, raw, index)
}

func appendEnumGroup(dst []byte, names *Strings, t *BitRangeTable, raw uint64, first int) []byte {
	e := &t.Entries[first]
	sub := e.Extract(raw)
	dst = appendName(dst, names, e.ID)
	dst = append(dst, '[')
	dst = appendValueString(dst, sub, matchName(names, t, first, sub))
	return append(dst, ']')
}

func matchName(names *Strings, t *BitRangeTable, first int, sub uint64) []byte {
	if i := t.Match(first, sub); i >= 0 {
		return names.bytes(t.Entries[i].Name)
	}
	return unknownName
}

func appendValueString(dst []byte, value uint64, name []byte) []byte {
	dst = append(dst, `{"value":`...)
	dst = strconv.AppendUint(dst, value, 10)
	dst = append(dst, `,"string":`...)
	dst = appendString(dst, name)
	return append(dst, '}')
}

func appendName(dst []byte, names *Strings, h StringHandle) []byte {
	dst = appendString(dst, names.bytes(h))
	return append(dst, ':')
}

var unknownName = []byte(constant.UnknownName)

func (s *Strings) bytes(h StringHandle) []byte {
	if s == nil {
		return nil
	}
	b, err := s.Bytes(h)
	if err != nil {
		return nil
	}
	return b
}

const hex = "0123456789abcdef"

// appendString appends s as a quoted JSON string.
func appendString(dst []byte, s []byte) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hex[c>>4], hex[c&0xf])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRune(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, s[start:i]...)
			dst = append(dst, "\ufffd"...)
			i += size
			start = i
			continue
		}
		i += size
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}
