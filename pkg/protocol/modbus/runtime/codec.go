package runtime

import (
	"math"
	"math/bits"
	"modbusbridge/pkg/runtime"
)

// Assemble joins size words into one value, most significant word first
// unless swapped.
func Assemble(words []uint16, size uint8, swapped bool) uint64 {
	var v uint64
	n := int(size)
	for i := 0; i < n; i++ {
		w := words[i]
		if swapped {
			w = words[n-1-i]
		}
		v = v<<16 | uint64(w)
	}
	return v
}

// Split is the inverse of Assemble.
func Split(dst []uint16, v uint64, size uint8, swapped bool) {
	n := int(size)
	for i := n - 1; i >= 0; i-- {
		if swapped {
			dst[n-1-i] = uint16(v)
		} else {
			dst[i] = uint16(v)
		}
		v >>= 16
	}
}

// Raw returns the register content after the invert mask, before any care
// mask. It is the value change tracking and single-bit writes start from.
func Raw(words []uint16, d *Descriptor) uint64 {
	if len(words) < int(d.Size) {
		return 0
	}
	return (Assemble(words, d.Size, d.WordSwapped) ^ d.InvertMask) & widthMask(d.Width())
}

// Decode turns the words of one sub-register into a tagged value. It never
// fails; a short buffer decodes as zero.
func Decode(words []uint16, d *Descriptor) runtime.Value {
	raw := Raw(words, d)
	if d.Kind.IsBit() {
		return runtime.Bool(raw&1 != 0)
	}
	if d.HasBits() {
		if d.Bits == nil {
			return runtime.Unsigned(raw)
		}
		return runtime.Unsigned(raw & d.Bits.CareMask)
	}
	return transform(raw, d)
}

func transform(raw uint64, d *Descriptor) runtime.Value {
	if d.Packed() {
		raw &= d.CareMask
	}
	shift := d.Shift
	switch {
	case d.Float:
		var f float64
		if d.Size == 2 {
			f = float64(math.Float32frombits(uint32(raw)))
		} else {
			f = math.Float64frombits(raw)
		}
		if d.Scale != 0 {
			f /= d.Scale
		}
		return runtime.Float(f + float64(shift))
	case d.Signed:
		i := signExtend(raw, signBit(d))
		if d.Scale != 0 {
			return runtime.Float(float64(i)/d.Scale + float64(shift))
		}
		return runtime.Signed((i + shift) >> d.StartingBitPos)
	default:
		if d.Scale != 0 {
			return runtime.Float(float64(raw)/d.Scale + float64(shift))
		}
		return runtime.Unsigned((raw + uint64(shift)) >> d.StartingBitPos)
	}
}

// signBit is the top bit of the value: the highest care bit of a packed
// field, the top bit of the register otherwise.
func signBit(d *Descriptor) uint8 {
	if d.Packed() {
		return uint8(63 - bits.LeadingZeros64(d.CareMask))
	}
	return d.Width() - 1
}

func signExtend(raw uint64, bit uint8) int64 {
	n := 63 - bit
	return int64(raw<<n) >> n
}

// BitsChanged reports which interpreted bits differ between two raw values.
func BitsChanged(cur, prev uint64, t *BitRangeTable) uint64 {
	if t == nil {
		return cur ^ prev
	}
	return (cur ^ prev) & t.CareMask
}

// Encode writes v over the whole register described by d.
func Encode(dst []uint16, d *Descriptor, v runtime.Value) error {
	_, err := EncodeWith(dst, d, v, 0)
	return err
}

// EncodeWith writes v over the whole register. Packed registers keep the
// bits of prev outside their care mask. The returned raw value is what a
// following decode of dst reports from Raw.
func EncodeWith(dst []uint16, d *Descriptor, v runtime.Value, prev uint64) (uint64, error) {
	if len(dst) < int(d.Size) {
		return 0, ErrShortBuffer
	}
	var raw uint64
	switch {
	case d.Kind.IsBit():
		b, ok := bitValue(v)
		if !ok {
			return 0, ErrUnsupportedValue
		}
		raw = b
	case d.HasBits():
		if v.IsFloat() {
			return 0, ErrUnsupportedValue
		}
		raw = v.ToUnsigned()
	case d.Float:
		f := v.ToFloat() - float64(d.Shift)
		if d.Scale != 0 {
			f *= d.Scale
		}
		if d.Size == 2 {
			raw = uint64(math.Float32bits(float32(f)))
		} else {
			raw = math.Float64bits(f)
		}
	case d.Scale != 0:
		raw = roundToRaw((v.ToFloat() - float64(d.Shift)) * d.Scale)
	case d.Signed:
		raw = uint64(v.ToSigned()<<d.StartingBitPos - d.Shift)
	default:
		raw = v.ToUnsigned()<<d.StartingBitPos - uint64(d.Shift)
	}
	if d.Packed() {
		raw = prev&^d.CareMask | raw&d.CareMask
	}
	raw &= widthMask(d.Width())
	put(dst, d, raw)
	return raw, nil
}

// EncodeBits replaces the care bits at bitID inside prev with v and writes
// the result. The returned raw value must replace prev for the next call so
// consecutive single-bit writes accumulate.
func EncodeBits(dst []uint16, d *Descriptor, v runtime.Value, bitID uint8, care, prev uint64) (uint64, error) {
	if len(dst) < int(d.Size) {
		return prev, ErrShortBuffer
	}
	if !d.HasBits() || v.IsFloat() || bitID >= d.Width() {
		return prev, ErrUnsupportedValue
	}
	in := v.ToUnsigned()
	if v.IsSigned() && v.AsSigned() < 0 || in&^care != 0 {
		return prev, ErrUnsupportedValue
	}
	raw := (prev&^(care<<bitID) | in<<bitID) & widthMask(d.Width())
	put(dst, d, raw)
	return raw, nil
}

func put(dst []uint16, d *Descriptor, raw uint64) {
	Split(dst, (raw^d.InvertMask)&widthMask(d.Width()), d.Size, d.WordSwapped)
}

func bitValue(v runtime.Value) (uint64, bool) {
	switch {
	case v.IsBool():
		if v.AsBool() {
			return 1, true
		}
		return 0, true
	case v.IsUnsigned() && v.AsUnsigned() <= 1:
		return v.AsUnsigned(), true
	case v.IsSigned() && (v.AsSigned() == 0 || v.AsSigned() == 1):
		return uint64(v.AsSigned()), true
	}
	return 0, false
}

func roundToRaw(f float64) uint64 {
	f = math.Round(f)
	if f >= math.MaxInt64 {
		return uint64(f)
	}
	return uint64(int64(f))
}
