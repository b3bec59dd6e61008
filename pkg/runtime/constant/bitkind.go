package constant

import (
	"encoding/json"
	"fmt"
)

// BitKind selects how the bits of a register are interpreted.
type BitKind uint8

const (
	BitKindNone BitKind = iota
	IndividualBits
	BitField
	IndividualEnums
	EnumField
	Enum
)

var BitKindToString = map[BitKind]string{
	BitKindNone:     "none",
	IndividualBits:  "individual_bits",
	BitField:        "bit_field",
	IndividualEnums: "individual_enums",
	EnumField:       "enum_field",
	Enum:            "enum",
}

var StringToBitKind = map[string]BitKind{
	"":                 BitKindNone,
	"none":             BitKindNone,
	"individual_bits":  IndividualBits,
	"bit_field":        BitField,
	"individual_enums": IndividualEnums,
	"enum_field":       EnumField,
	"enum":             Enum,
}

func (bk BitKind) String() string {
	if s, ok := BitKindToString[bk]; ok {
		return s
	}
	return fmt.Sprintf("BitKind(%d)", bk)
}

func (bk BitKind) MarshalJSON() ([]byte, error) {
	if s, ok := BitKindToString[bk]; ok {
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown bit kind %d", bk)
}

func (bk *BitKind) UnmarshalJSON(bytes []byte) error {
	var s string
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}

	v, ok := StringToBitKind[s]
	if !ok {
		return fmt.Errorf("unknown bit kind %s", s)
	}
	*bk = v
	return nil
}
