package broker

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"modbusbridge/pkg/runtime"
	"testing"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   interface{}
		want runtime.Value
	}{
		{json.Number("12"), runtime.Unsigned(12)},
		{json.Number("-3"), runtime.Signed(-3)},
		{json.Number("2.5"), runtime.Float(2.5)},
		{json.Number("1e3"), runtime.Float(1000)},
		{true, runtime.Bool(true)},
		{"false", runtime.Bool(false)},
		{"7", runtime.Unsigned(7)},
		{float64(0.5), runtime.Float(0.5)},
	}
	for _, c := range cases {
		got, err := ParseValue(c.in)
		require.NoError(t, err, "%v", c.in)
		assert.True(t, c.want.Equal(got), "%v: got %v", c.in, got)
	}

	_, err := ParseValue("abc")
	assert.ErrorIs(t, err, ErrBadBody)
	_, err = ParseValue([]interface{}{1})
	assert.ErrorIs(t, err, ErrBadBody)
}

func TestBodies(t *testing.T) {
	body, err := decodeBody([]byte(`{"value": 5}`))
	require.NoError(t, err)
	v, err := singleValue(body)
	require.NoError(t, err)
	assert.Equal(t, json.Number("5"), v)

	body, err = decodeBody([]byte(`true`))
	require.NoError(t, err)
	v, err = singleValue(body)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	body, _ = decodeBody([]byte(`{"other": 1}`))
	_, err = singleValue(body)
	assert.ErrorIs(t, err, ErrBadBody)

	_, err = decodeBody([]byte(`{`))
	assert.ErrorIs(t, err, ErrBadBody)

	topic, err := replyTo([]byte(`{"replyto":"reply/here"}`))
	require.NoError(t, err)
	assert.Equal(t, "reply/here", topic)
	_, err = replyTo([]byte(`{}`))
	assert.ErrorIs(t, err, ErrNoReplyTopic)
	_, err = replyTo(nil)
	assert.ErrorIs(t, err, ErrNoReplyTopic)
}
