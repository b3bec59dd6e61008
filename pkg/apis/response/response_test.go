package response

import (
	"encoding/json"
	stderrors "errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestMultiErrorJSON(t *testing.T) {
	me := NewMultiError(ErrComponentNotFound("pump"), ErrMalformedJSON)
	data, err := json.Marshal(me)
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors":[
		{"code":10003,"message":"Component pump not found."},
		{"code":10001,"message":"The JSON you provided was not well-formed or did not validate against our published format."}
	]}`, string(data))

	back := &MultiError{}
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, 2, back.Len())
	assert.Equal(t, "10003: Component pump not found.", back.Errors()[0].Error())
}

func TestCommandRejectedUnwraps(t *testing.T) {
	cause := stderrors.New("queue full")
	err := ErrCommandRejected(cause)
	assert.True(t, IsResponseError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeCommandRejected, err.GetCode())
	assert.Equal(t, "Command rejected: queue full", err.Message)
}

func TestMultiErrorPlainError(t *testing.T) {
	data, err := json.Marshal(NewMultiError(stderrors.New("boom")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors":[{"code":0,"message":"boom"}]}`, string(data))
}
