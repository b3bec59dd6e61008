package uuidutil

import (
	"strings"
	"testing"
)

func TestUUID(t *testing.T) {
	expect := UUID()
	actual := UUID()
	if expect == actual {
		t.Errorf("actual %v, expect different from %v", actual, expect)
	}
	if len(actual) != 32 {
		t.Errorf("actual length %d, expect 32", len(actual))
	}
}

func TestShortUUID(t *testing.T) {
	id := ShortUUID()
	if strings.ContainsAny(id, "-_/+#") {
		t.Errorf("short uuid %q carries reserved characters", id)
	}
}
