package constant

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestRegisterKindJSON(t *testing.T) {
	var k RegisterKind
	require.NoError(t, json.Unmarshal([]byte(`"input_registers"`), &k))
	assert.Equal(t, InputRegister, k)
	assert.False(t, k.Writable())
	assert.False(t, k.IsBit())

	data, err := json.Marshal(Coil)
	require.NoError(t, err)
	assert.Equal(t, `"coils"`, string(data))
	assert.True(t, Coil.IsBit())
	assert.True(t, Coil.Writable())

	assert.Error(t, json.Unmarshal([]byte(`"registers"`), &k))
}

func TestBitKindJSON(t *testing.T) {
	var bk BitKind
	require.NoError(t, json.Unmarshal([]byte(`"enum_field"`), &bk))
	assert.Equal(t, EnumField, bk)
	require.NoError(t, json.Unmarshal([]byte(`""`), &bk))
	assert.Equal(t, BitKindNone, bk)
	assert.Error(t, json.Unmarshal([]byte(`"bits"`), &bk))
}

func TestStopBitsJSON(t *testing.T) {
	var sb StopBits
	require.NoError(t, json.Unmarshal([]byte(`2`), &sb))
	assert.Equal(t, TwoStopBits, sb)
	require.NoError(t, json.Unmarshal([]byte(`"1.5"`), &sb))
	assert.Equal(t, OnePointFiveStopBits, sb)

	var p Parity
	require.NoError(t, json.Unmarshal([]byte(`"even"`), &p))
	assert.Equal(t, EvenParity, p)
}
