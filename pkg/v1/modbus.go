package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"modbusbridge/pkg/runtime/constant"
)

// Component is a named set of register groups published as one message.
type Component struct {
	Name  string `json:"name" binding:"required,min=1,max=64,excludesall=/#+"`
	Topic string `json:"topic,omitempty"`
	// Heartbeat enables a liveness message at this period.
	Heartbeat metav1.Duration  `json:"heartbeat,omitempty"`
	Groups    []*RegisterGroup `json:"groups" binding:"required,min=1,dive,required"`
}

// RegisterGroup is polled at one period. Groups longer than a single request
// allows are split into several workers.
type RegisterGroup struct {
	Kind      *constant.RegisterKind `json:"kind" binding:"required"`
	Period    metav1.Duration        `json:"period"`
	Slave     *uint8                 `json:"slave,omitempty" binding:"omitempty,lte=247"`
	Registers []*Register            `json:"registers" binding:"required,min=1,dive,required"`
}

type Register struct {
	ID          string           `json:"id" binding:"required,min=1,max=64,excludesall=/#+"`
	Address     uint16           `json:"address"`
	Size        uint8            `json:"size,omitempty" binding:"omitempty,oneof=1 2 4"`
	Type        string           `json:"type,omitempty" binding:"omitempty,oneof=unsigned signed float"`
	WordSwapped bool             `json:"wordSwapped,omitempty"`
	InvertMask  uint64           `json:"invertMask,omitempty"`
	CareMask    uint64           `json:"careMask,omitempty"`
	StartingBit uint8            `json:"startingBit,omitempty" binding:"lte=63"`
	Scale       float64          `json:"scale,omitempty"`
	Shift       int64            `json:"shift,omitempty"`
	Debounce    metav1.Duration  `json:"debounce,omitempty"`
	BitKind     constant.BitKind `json:"bitKind,omitempty"`
	IgnoreMask  uint64           `json:"ignoreMask,omitempty"`
	Bits        []*BitRange      `json:"bits,omitempty" binding:"omitempty,dive,required"`
}

// BitRange names bits Begin..End of a register, or one enumeration value of
// that span. ID makes the span addressable on its own.
type BitRange struct {
	Begin uint8  `json:"begin" binding:"lte=63"`
	End   *uint8 `json:"end,omitempty" binding:"omitempty,lte=63"`
	Value uint64 `json:"value,omitempty"`
	Name  string `json:"name,omitempty" binding:"max=64"`
	ID    string `json:"id,omitempty" binding:"omitempty,max=64,excludesall=/#+"`
}

func (b *BitRange) Last() uint8 {
	if b.End == nil {
		return b.Begin
	}
	return *b.End
}
