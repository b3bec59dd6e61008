package runtime

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"math"
	"testing"
)

func TestValueAccessors(t *testing.T) {
	u := Unsigned(42)
	assert.True(t, u.IsUnsigned())
	assert.False(t, u.IsSigned())
	assert.Equal(t, uint64(42), u.AsUnsigned())
	assert.Equal(t, int64(0), u.AsSigned())
	assert.Equal(t, float64(0), u.AsFloat())
	assert.False(t, u.AsBool())

	i := Signed(-7)
	assert.True(t, i.IsSigned())
	assert.Equal(t, int64(-7), i.AsSigned())
	assert.Equal(t, uint64(0), i.AsUnsigned())

	f := Float(1.5)
	assert.True(t, f.IsFloat())
	assert.Equal(t, 1.5, f.AsFloat())
	assert.Equal(t, int64(0), f.AsSigned())

	b := Bool(true)
	assert.True(t, b.IsBool())
	assert.True(t, b.AsBool())
	assert.Equal(t, uint64(0), b.AsUnsigned())
}

func TestValueEquality(t *testing.T) {
	assert.True(t, Unsigned(5).Equal(Unsigned(5)))
	assert.False(t, Unsigned(5).Equal(Signed(5)))
	assert.False(t, Float(5).Equal(Unsigned(5)))
	assert.True(t, Bool(false).Equal(Bool(false)))

	// the raw operand's type selects the branch
	assert.True(t, Unsigned(5).EqualUnsigned(5))
	assert.False(t, Signed(5).EqualUnsigned(5))
	assert.False(t, Unsigned(5).EqualSigned(5))
	assert.True(t, Signed(-1).EqualSigned(-1))
	assert.False(t, Signed(1).EqualFloat(1))
	assert.True(t, Float(2.25).EqualFloat(2.25))
	assert.False(t, Unsigned(1).EqualBool(true))
	assert.True(t, Bool(true).EqualBool(true))
}

func TestValueConversions(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint64), Signed(-1).ToUnsigned())
	assert.Equal(t, uint64(3), Float(3.9).ToUnsigned())
	assert.Equal(t, int64(-3), Float(-3.9).ToSigned())
	assert.Equal(t, float64(1), Bool(true).ToFloat())
	assert.Equal(t, float64(-2), Signed(-2).ToFloat())
}

func TestValueJSON(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Unsigned(65538), "65538"},
		{Signed(-12), "-12"},
		{Float(32769), "32769"},
		{Float(0.25), "0.25"},
		{Float(math.NaN()), "null"},
		{Bool(true), "true"},
	}
	for _, c := range cases {
		data, err := json.Marshal(c.v)
		assert.NoError(t, err)
		assert.Equal(t, c.want, string(data))
		assert.Equal(t, c.want, c.v.String())
	}
}
