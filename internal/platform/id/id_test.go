package id_test

import (
	"strings"
	"testing"
	"time"

	"sacredsound/internal/platform/id"
)

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

func TestTimeSuffixedIsUniqueAndPrefixed(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	gen := id.TimeSuffixed{Prefix: "session", Clock: fixedClock{at: at}}
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		value := gen.New()
		if !strings.HasPrefix(value, "session-1704096000000-") {
			t.Fatalf("unexpected id format: %s", value)
		}
		if _, dup := seen[value]; dup {
			t.Fatalf("duplicate id generated: %s", value)
		}
		seen[value] = struct{}{}
	}
}
