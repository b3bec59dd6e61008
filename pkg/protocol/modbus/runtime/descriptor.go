package runtime

import (
	"k8s.io/apimachinery/pkg/util/validation/field"
	"modbusbridge/pkg/runtime/constant"
	"time"
)

// Descriptor is the immutable decode configuration of one sub-register.
type Descriptor struct {
	Name   StringHandle
	Kind   constant.RegisterKind
	Offset uint16
	// Size is the word count: 1, 2 or 4. Coils and discrete inputs use 1.
	Size        uint8
	WordSwapped bool
	Signed      bool
	Float       bool
	InvertMask  uint64
	// CareMask and StartingBitPos carve a packed value out of a shared register.
	CareMask       uint64
	StartingBitPos uint8
	Scale          float64
	Shift          int64
	BitKind        constant.BitKind
	Bits           *BitRangeTable
	Debounce       time.Duration
}

// Width is the register width in bits.
func (d *Descriptor) Width() uint8 {
	if d.Kind.IsBit() {
		return 1
	}
	return d.Size * 16
}

func (d *Descriptor) End() uint16 {
	return d.Offset + uint16(d.Size)
}

func (d *Descriptor) HasBits() bool {
	return d.BitKind != constant.BitKindNone
}

func (d *Descriptor) Packed() bool {
	return d.CareMask != 0
}

func (d *Descriptor) Validate(path *field.Path) field.ErrorList {
	var allErrs field.ErrorList
	switch d.Size {
	case 1, 2, 4:
	default:
		allErrs = append(allErrs, field.NotSupported(path.Child("size"), d.Size, []string{"1", "2", "4"}))
	}
	if d.Signed && d.Float {
		allErrs = append(allErrs, field.Invalid(path.Child("float"), d.Float, "signed and float are mutually exclusive"))
	}
	if d.Float && d.Size == 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("float"), d.Float, "a single word cannot hold a float"))
	}
	if d.Kind.IsBit() {
		if d.Size != 1 || d.Signed || d.Float || d.Scale != 0 || d.HasBits() {
			allErrs = append(allErrs, field.Invalid(path.Child("type"), d.Kind.String(), "bit registers decode to plain booleans"))
		}
	}
	if d.HasBits() {
		if d.Signed || d.Float || d.Scale != 0 {
			allErrs = append(allErrs, field.Invalid(path.Child(d.BitKind.String()), d.BitKind.String(), "bit ranges exclude signed, float and scale"))
		}
		if d.Bits == nil {
			allErrs = append(allErrs, field.Required(path.Child(d.BitKind.String()), "bit ranges need a table"))
		}
		if d.Packed() {
			allErrs = append(allErrs, field.Invalid(path.Child("bit_mask"), d.CareMask, "bit ranges cannot be packed"))
		}
	}
	if int(d.StartingBitPos) >= int(d.Size)*16 {
		allErrs = append(allErrs, field.Invalid(path.Child("starting_bit_pos"), d.StartingBitPos, "outside register"))
	}
	return allErrs
}
