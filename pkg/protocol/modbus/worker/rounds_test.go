package worker

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"time"
)

func field(s string) func([]byte) []byte {
	return func(dst []byte) []byte { return append(dst, s...) }
}

func TestRoundsPerRequest(t *testing.T) {
	rec := &recorder{}
	r := NewRounds("pump/get", 2, 0, rec.SendReply)
	r.now = fixedNow

	// slot 1 runs a request ahead of slot 0
	r.Contribute(1, 1, "reply/1", field(`"b":1`))
	r.Contribute(1, 2, "reply/2", field(`"b":2`))
	assert.Equal(t, 2, r.Open())
	r.Contribute(0, 1, "reply/1", field(`"a":1`))
	r.Contribute(0, 2, "reply/2", field(`"a":2`))

	topics, payloads := rec.snapshot()
	require.Len(t, payloads, 2)
	assert.Equal(t, []string{"reply/1", "reply/2"}, topics)
	assert.Equal(t, `{"b":1,"a":1,"Timestamp":"2023-05-06T07:08:09.123Z"}`, payloads[0])
	assert.True(t, strings.HasPrefix(payloads[1], `{"b":2,"a":2,`), payloads[1])
	assert.Equal(t, 0, r.Open())
}

func TestRoundsIgnoresRepeatedSlot(t *testing.T) {
	rec := &recorder{}
	r := NewRounds("pump/get", 2, 0, rec.SendReply)
	r.Contribute(0, 7, "reply", field(`"a":1`))
	r.Contribute(0, 7, "reply", field(`"a":1`))
	assert.Equal(t, 0, rec.len())
	r.Contribute(1, 7, "reply", field(`"b":1`))
	_, payloads := rec.snapshot()
	require.Len(t, payloads, 1)
	assert.Equal(t, 1, strings.Count(payloads[0], `"a":1`))
}

func TestRoundsDrop(t *testing.T) {
	rec := &recorder{}
	r := NewRounds("pump/get", 2, 0, rec.SendReply)
	r.Contribute(0, 1, "reply/1", field(`"a":1`))
	r.Drop(1)
	r.Contribute(1, 1, "reply/1", field(`"b":1`))

	// a request nobody answered yet is dropped before it opens
	r.Drop(2)
	r.Contribute(0, 2, "reply/2", field(`"a":2`))
	r.Contribute(1, 2, "reply/2", field(`"b":2`))
	assert.Equal(t, 0, rec.len())
	assert.Equal(t, 0, r.Open())

	r.Contribute(0, 3, "reply/3", field(`"a":3`))
	r.Reset()
	r.Contribute(1, 3, "reply/3", field(`"b":3`))
	assert.Equal(t, 0, rec.len())
}

func TestRoundsExpire(t *testing.T) {
	rec := &recorder{}
	now := fixedNow()
	r := NewRounds("pump/get", 2, time.Second, rec.SendReply)
	r.now = func() time.Time { return now }

	r.Contribute(0, 1, "reply/1", field(`"a":1`))
	now = now.Add(2 * time.Second)
	r.Contribute(0, 2, "reply/2", field(`"a":2`))
	assert.Equal(t, 1, r.Open())

	// the late answer opens a fresh round instead of completing the old one
	r.Contribute(1, 1, "reply/1", field(`"b":1`))
	assert.Equal(t, 0, rec.len())
	assert.Equal(t, 2, r.Open())
}

func TestRoundsSkipsEmptyAnswer(t *testing.T) {
	rec := &recorder{}
	r := NewRounds("pump/get", 2, 0, rec.SendReply)
	r.Contribute(0, 1, "reply", nil)
	r.Contribute(1, 1, "reply", field(""))
	assert.Equal(t, 0, rec.len())
	assert.Equal(t, 0, r.Open())
}
