package service_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacredsound/internal/modules/backup/service"
	syncadapter "sacredsound/internal/modules/sync/adapter/out"
	syncdomain "sacredsound/internal/modules/sync/domain"
	syncservice "sacredsound/internal/modules/sync/service"
	"sacredsound/internal/platform/codec"
	apperrors "sacredsound/internal/platform/errors"
)

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

func newStore(t *testing.T) (*syncservice.Coordinator, *syncadapter.SQLiteLocalStore) {
	t.Helper()
	local, err := syncadapter.NewSQLiteLocalStore(filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })
	coord, err := syncservice.NewCoordinator(context.Background(), nil, local, nil, nil, nil, syncservice.Options{})
	require.NoError(t, err)
	return coord, local
}

func seed(t *testing.T, store *syncservice.Coordinator) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, syncdomain.CollectionUserProfile, json.RawMessage(`{"id":"primary-user","userId":"u1","xp":120,"level":2,"preferences":{"soundVolume":0.7}}`)))
	require.NoError(t, store.Set(ctx, syncdomain.CollectionSessions, json.RawMessage(`{"id":"session-2","date":1700000000123,"type":"sound","duration":20,"sounds":["rain"],"completed":true}`)))
	require.NoError(t, store.Set(ctx, syncdomain.CollectionSessions, json.RawMessage(`{"id":"session-1","date":1699990000000,"type":"breathwork","pattern":"box","duration":10,"moodBefore":3,"moodAfter":8,"completed":true,"notes":"calm"}`)))
	require.NoError(t, store.Set(ctx, syncdomain.CollectionCustomSessions, json.RawMessage(`{"id":"evening-wind-down","name":"Evening wind down","type":"guided","duration":15,"created":1699000000000}`)))
	require.NoError(t, store.Set(ctx, syncdomain.CollectionAchievements, json.RawMessage(`{"id":"first_session","userId":"u1","unlockedAt":1700000000999,"xpBonus":10}`)))
}

func sameJSON(t *testing.T, want, got json.RawMessage) {
	t.Helper()
	var w, g any
	require.NoError(t, json.Unmarshal(want, &w))
	require.NoError(t, json.Unmarshal(got, &g))
	assert.Equal(t, w, g)
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	for _, format := range []codec.Format{codec.FormatJSON, codec.FormatYAML} {
		format := format
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			source, sourceLocal := newStore(t)
			seed(t, source)
			exporter := service.NewBackupService(nil, fixedClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}, source)

			data, snapshot, err := exporter.Export(ctx, format)
			require.NoError(t, err)
			assert.Equal(t, 5, snapshot.Count())
			assert.Equal(t, "session-1", snapshot.Collections["sessions"][0]["id"])
			assert.Equal(t, codec.Detect(data), format)

			target, targetLocal := newStore(t)
			importer := service.NewBackupService(nil, nil, target)
			report, err := importer.Import(ctx, data, false)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"userProfile": 1, "sessions": 2, "customSessions": 1, "achievements": 1}, report.Imported)
			assert.Zero(t, report.Skipped)

			for _, ref := range []struct {
				collection syncdomain.Collection
				key        string
			}{
				{syncdomain.CollectionUserProfile, "primary-user"},
				{syncdomain.CollectionSessions, "session-1"},
				{syncdomain.CollectionSessions, "session-2"},
				{syncdomain.CollectionCustomSessions, "evening-wind-down"},
				{syncdomain.CollectionAchievements, "first_session"},
			} {
				want, ok, err := sourceLocal.Get(ctx, ref.collection, ref.key)
				require.NoError(t, err)
				require.True(t, ok)
				got, ok, err := targetLocal.Get(ctx, ref.collection, ref.key)
				require.NoError(t, err)
				require.True(t, ok, "%s/%s missing after import", ref.collection, ref.key)
				sameJSON(t, want, got)
			}

			// imported records keep their date index
			ranged, err := target.GetByIndex(ctx, syncdomain.CollectionSessions, syncdomain.IndexDate, syncdomain.Between(1699990000000, 1699990000000))
			require.NoError(t, err)
			assert.Len(t, ranged, 1)
		})
	}
}

func TestImportReplaceClearsExistingData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, local := newStore(t)
	require.NoError(t, store.Set(ctx, syncdomain.CollectionSessions, json.RawMessage(`{"id":"stale","date":1,"type":"sound","duration":1}`)))

	backup := []byte(`
version: 1
collections:
  userProfile:
    - id: somebody-else
      xp: 5
  sessions:
    - id: fresh
      date: 1700000000000
      type: guided
      duration: 12
    - type: guided
`)
	svc := service.NewBackupService(nil, nil, store)
	report, err := svc.Import(ctx, backup, true)
	require.NoError(t, err)
	assert.True(t, report.ClearedFirst)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Imported["sessions"])

	_, ok, err := local.Get(ctx, syncdomain.CollectionSessions, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = local.Get(ctx, syncdomain.CollectionUserProfile, "primary-user")
	require.NoError(t, err)
	assert.True(t, ok, "the profile is always imported under the local key")
}

func TestImportRejectsBadBackups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newStore(t)
	svc := service.NewBackupService(nil, nil, store)

	cases := map[string]string{
		"garbage":         `{"version":`,
		"future version":  `{"version":9,"collections":{}}`,
		"no collections":  `{"version":1}`,
		"unknown section": `{"version":1,"collections":{"syncQueue":[]}}`,
	}
	for name, data := range cases {
		_, err := svc.Import(ctx, []byte(data), false)
		require.ErrorIs(t, err, apperrors.ErrInvalidInput, name)
	}
}
