package constant

import (
	"encoding/json"
	"fmt"
)

type RegisterKind uint8

const (
	Coil RegisterKind = iota
	DiscreteInput
	HoldingRegister
	InputRegister
)

var RegisterKindToString = map[RegisterKind]string{
	Coil:            "coils",
	DiscreteInput:   "discrete_inputs",
	HoldingRegister: "holding_registers",
	InputRegister:   "input_registers",
}

var StringToRegisterKind = map[string]RegisterKind{
	"coils":             Coil,
	"discrete_inputs":   DiscreteInput,
	"holding_registers": HoldingRegister,
	"input_registers":   InputRegister,
}

// ReadFunctionCode is the Modbus function used to poll a kind.
var ReadFunctionCode = map[RegisterKind]uint8{
	Coil:            1,
	DiscreteInput:   2,
	HoldingRegister: 3,
	InputRegister:   4,
}

// MaxSpan is the largest quantity a single read request may carry.
var MaxSpan = map[RegisterKind]uint16{
	Coil:            2000,
	DiscreteInput:   2000,
	HoldingRegister: 125,
	InputRegister:   125,
}

const (
	FuncCodeWriteSingleCoil        uint8 = 5
	FuncCodeWriteSingleRegister    uint8 = 6
	FuncCodeWriteMultipleCoils     uint8 = 15
	FuncCodeWriteMultipleRegisters uint8 = 16
)

// IsBit reports whether the kind addresses 1-bit memory.
func (k RegisterKind) IsBit() bool {
	return k == Coil || k == DiscreteInput
}

// Writable reports whether the kind accepts write requests.
func (k RegisterKind) Writable() bool {
	return k == Coil || k == HoldingRegister
}

func (k RegisterKind) String() string {
	if s, ok := RegisterKindToString[k]; ok {
		return s
	}
	return fmt.Sprintf("RegisterKind(%d)", k)
}

func (k RegisterKind) MarshalJSON() ([]byte, error) {
	if s, ok := RegisterKindToString[k]; ok {
		return json.Marshal(s)
	}
	return nil, fmt.Errorf("unknown register kind %d", k)
}

func (k *RegisterKind) UnmarshalJSON(bytes []byte) error {
	var s string
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}

	v, ok := StringToRegisterKind[s]
	if !ok {
		return fmt.Errorf("unknown register kind %s", s)
	}
	*k = v
	return nil
}
