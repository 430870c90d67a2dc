package out_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	achievementadapter "sacredsound/internal/modules/achievement/adapter/out"
	"sacredsound/internal/modules/achievement/domain"
	syncadapter "sacredsound/internal/modules/sync/adapter/out"
	syncdomain "sacredsound/internal/modules/sync/domain"
	syncservice "sacredsound/internal/modules/sync/service"
	"sacredsound/internal/platform/backend"
	"sacredsound/internal/platform/backend/backendtest"
)

func newCoordinator(t *testing.T) (*syncservice.Coordinator, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	local, err := syncadapter.NewSQLiteLocalStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })
	client := backend.New(nil, backend.Config{BaseURL: srv.BaseURL(), Timeout: 2 * time.Second, UserID: "u1"})
	coord, err := syncservice.NewCoordinator(context.Background(), nil, local, syncadapter.NewBackendMirror(client), nil, nil, syncservice.Options{})
	require.NoError(t, err)
	require.True(t, coord.Probe(context.Background()))
	return coord, srv
}

func TestUnlockStoreRoundTripsThroughBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	coord, srv := newCoordinator(t)
	store := achievementadapter.NewSyncedUnlockStore(coord)

	require.NoError(t, store.Save(ctx, domain.Unlock{ID: "night_owl", UserID: "u1", UnlockedAt: 1_700_000_000_000, XPBonus: 25}))
	calls := srv.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "night_owl", calls[len(calls)-1].Key)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "night_owl", list[0].ID)
	assert.Equal(t, 25, list[0].XPBonus, "bonus is filled from the catalog for remote records")
}

func TestSessionHistoryToleratesPartialRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	coord, srv := newCoordinator(t)
	srv.SeedSession("u1", json.RawMessage(`{"id":"remote-1","date":1700000000000,"type":"sound","duration":5,"sounds":["chakra_1"]}`))
	require.NoError(t, coord.Set(ctx, syncdomain.CollectionSessions, json.RawMessage(`{"id":"local-1","date":1700000100000,"type":"breathwork","pattern":"wim-hof","moodBefore":2,"moodAfter":8}`)))
	require.NoError(t, coord.PutDirect(ctx, syncdomain.CollectionSessions, json.RawMessage(`{"id":"odd","date":"yesterday"}`)))

	facts, err := achievementadapter.NewSessionHistory(coord).Sessions(ctx)
	require.NoError(t, err)
	byType := map[string]domain.SessionFact{}
	for _, f := range facts {
		byType[f.Type] = f
	}
	require.Contains(t, byType, "sound")
	require.Contains(t, byType, "breathwork")
	assert.Equal(t, []string{"chakra_1"}, byType["sound"].Sounds)
	assert.Nil(t, byType["sound"].MoodBefore)
	assert.Equal(t, 8, *byType["breathwork"].MoodAfter)
	assert.Equal(t, "wim-hof", byType["breathwork"].Pattern)
}
