package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sacredsound/internal/platform/clock"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// TimeSuffixed produces "<prefix>-<unix millis>-<random>" identifiers so ids
// sort roughly by creation time and never collide across devices.
type TimeSuffixed struct {
	Prefix string
	Clock  clock.Clock
}

func (g TimeSuffixed) New() string {
	clk := g.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	if g.Prefix == "" {
		return fmt.Sprintf("%d-%s", clk.Now().UnixMilli(), suffix)
	}
	return fmt.Sprintf("%s-%d-%s", g.Prefix, clk.Now().UnixMilli(), suffix)
}
