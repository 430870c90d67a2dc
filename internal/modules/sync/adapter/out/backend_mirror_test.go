package out_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncadapter "sacredsound/internal/modules/sync/adapter/out"
	"sacredsound/internal/modules/sync/domain"
	"sacredsound/internal/platform/backend"
	"sacredsound/internal/platform/backend/backendtest"
)

func newMirror(t *testing.T) (*syncadapter.BackendMirror, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	client := backend.New(nil, backend.Config{BaseURL: srv.BaseURL(), Timeout: 2 * time.Second, UserID: "u1"})
	return syncadapter.NewBackendMirror(client), srv
}

func TestMirrorSupportsRemoteCollectionsOnly(t *testing.T) {
	t.Parallel()
	mirror, _ := newMirror(t)
	assert.True(t, mirror.Supports(domain.CollectionSessions))
	assert.True(t, mirror.Supports(domain.CollectionUserProfile))
	assert.True(t, mirror.Supports(domain.CollectionAchievements))
	assert.False(t, mirror.Supports(domain.CollectionCustomSessions))
}

func TestMirrorSessionsApplyAndFetch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mirror, srv := newMirror(t)

	require.NoError(t, mirror.Apply(ctx, domain.CollectionSessions, domain.ActionSet, "s1", json.RawMessage(`{"id":"s1","type":"sound"}`)))
	require.NoError(t, mirror.Apply(ctx, domain.CollectionSessions, domain.ActionSet, "s1", json.RawMessage(`{"id":"s1","type":"sound"}`)))
	assert.Equal(t, []string{"s1"}, srv.SessionIDs("u1"))

	record, ok, err := mirror.Fetch(ctx, domain.CollectionSessions, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"s1","type":"sound"}`, string(record))

	require.NoError(t, mirror.Apply(ctx, domain.CollectionSessions, domain.ActionDelete, "s1", nil))
	// already gone on the backend
	require.NoError(t, mirror.Apply(ctx, domain.CollectionSessions, domain.ActionDelete, "s1", nil))
	assert.Empty(t, srv.SessionIDs("u1"))
}

func TestMirrorPagesThroughSessions(t *testing.T) {
	t.Parallel()
	mirror, srv := newMirror(t)
	for i := 0; i < 150; i++ {
		srv.SeedSession("u1", json.RawMessage(fmt.Sprintf(`{"id":"s%d"}`, i)))
	}
	all, err := mirror.FetchAll(context.Background(), domain.CollectionSessions)
	require.NoError(t, err)
	assert.Len(t, all, 150)
}

func TestMirrorProfileUsesPrimaryKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mirror, srv := newMirror(t)

	_, ok, err := mirror.Fetch(ctx, domain.CollectionUserProfile, domain.PrimaryProfileKey)
	require.NoError(t, err)
	assert.False(t, ok)

	srv.SeedProfile("u1", json.RawMessage(`{"id":"u1","xp":120}`))
	record, ok, err := mirror.Fetch(ctx, domain.CollectionUserProfile, domain.PrimaryProfileKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"primary-user","xp":120}`, string(record))

	require.NoError(t, mirror.Apply(ctx, domain.CollectionUserProfile, domain.ActionSet, domain.PrimaryProfileKey, json.RawMessage(`{"id":"primary-user","xp":150}`)))
	assert.JSONEq(t, `{"id":"primary-user","xp":150}`, string(srv.Profile("u1")))
}

func TestMirrorAchievementsBecomeUnlockRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mirror, _ := newMirror(t)

	require.NoError(t, mirror.Apply(ctx, domain.CollectionAchievements, domain.ActionSet, "first_session", json.RawMessage(`{"id":"first_session"}`)))
	all, err := mirror.FetchAll(ctx, domain.CollectionAchievements)
	require.NoError(t, err)
	require.Len(t, all, 1)

	unlock := struct {
		ID         string `json:"id"`
		UserID     string `json:"userId"`
		UnlockedAt int64  `json:"unlockedAt"`
	}{}
	require.NoError(t, json.Unmarshal(all[0], &unlock))
	assert.Equal(t, "first_session", unlock.ID)
	assert.Equal(t, "u1", unlock.UserID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), unlock.UnlockedAt)
}
