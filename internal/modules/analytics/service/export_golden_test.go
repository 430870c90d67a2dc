package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"sacredsound/internal/modules/analytics/domain"
	"sacredsound/internal/modules/analytics/service"
)

// Regenerate with: go test ./internal/modules/analytics/service -run TestExportCSVGolden -update
func TestExportCSVGolden(t *testing.T) {
	t.Parallel()
	sessions := &fakeSessions{entries: []domain.Entry{
		{Date: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), Type: "breathwork", Pattern: "box", Duration: 10, MoodBefore: intPtr(4), MoodAfter: intPtr(8), Completed: true, Notes: `felt "light", calm`},
		{Date: time.Date(2024, 3, 2, 21, 15, 0, 0, time.UTC), Type: "sound", Duration: 20},
	}}
	svc := service.NewAnalyticsService(fixedClock{}, time.UTC, sessions, fakeProfile{})

	buf := &bytes.Buffer{}
	_, err := svc.ExportCSV(context.Background(), buf)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export", buf.Bytes())
}
