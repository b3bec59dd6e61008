package runtime

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestStringsIntern(t *testing.T) {
	s := NewStrings(32)
	a, err := s.Intern("running")
	require.NoError(t, err)
	b, err := s.Intern("idle")
	require.NoError(t, err)
	again, err := s.Intern("running")
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.Equal(t, len("running")+len("idle"), s.Len())

	name, ok := s.Lookup(b)
	assert.True(t, ok)
	assert.Equal(t, "idle", name)
}

func TestStringsBounds(t *testing.T) {
	s := NewStrings(8)
	_, err := s.Intern("12345678")
	require.NoError(t, err)
	_, err = s.Intern("9")
	assert.ErrorIs(t, err, ErrArenaFull)

	_, ok := s.Lookup(StringHandle{Offset: 4, Length: 10})
	assert.False(t, ok)
	_, err = s.Bytes(StringHandle{Offset: 100})
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestStringsRejectsLongNames(t *testing.T) {
	s := NewStrings(1 << 20)
	_, err := s.Intern(strings.Repeat("x", 1<<16))
	assert.ErrorIs(t, err, ErrArenaFull)
}
