package bootstrap_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacredsound/internal/bootstrap"
	sessiondto "sacredsound/internal/modules/session/dto"
	"sacredsound/internal/platform/backend/backendtest"
	"sacredsound/internal/platform/config"
	"sacredsound/internal/platform/logger"
)

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)
	cfg.APIBaseURL = baseURL
	cfg.APITimeout = 2 * time.Second
	cfg.Timezone = "UTC"
	return cfg
}

func TestNewLogsInAndMirrorsSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	cfg := testConfig(t, srv.BaseURL())

	app, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{Logger: logger.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	profile, err := app.ProfileCLI.Show(ctx)
	require.NoError(t, err)
	require.Equal(t, "user-1", profile.UserID)

	saved, err := app.SessionCLI.Save(ctx, sessiondto.SaveInput{
		Type:      "sound",
		Name:      "Singing bowls",
		Duration:  15,
		Completed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, saved.XPGained)
	assert.Contains(t, srv.SessionIDs("user-1"), saved.Session.ID)
	assert.Equal(t, 0, app.SyncCLI.Status(ctx).Pending)
	assert.NotEmpty(t, srv.Profile("user-1"))
}

func TestProfileStaysMirroredAcrossRestarts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	cfg := testConfig(t, srv.BaseURL())

	for run := 0; run < 3; run++ {
		app, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{Logger: logger.NewNop()})
		require.NoError(t, err)

		_, err = app.SessionCLI.Save(ctx, sessiondto.SaveInput{Type: "breathwork", Pattern: "box", Duration: 10, Completed: true})
		require.NoError(t, err)
		local, err := app.ProfileCLI.Show(ctx)
		require.NoError(t, err)

		status := app.SyncCLI.Status(ctx)
		assert.True(t, status.BackendAvailable, "run %d", run)
		assert.Equal(t, 0, status.Pending, "run %d: %v", run, status.ByCollection)

		raw := srv.Profile("user-1")
		require.NotEmpty(t, raw, "run %d", run)
		remote := struct {
			UserID string `json:"userId"`
			XP     int    `json:"xp"`
		}{}
		require.NoError(t, json.Unmarshal(raw, &remote))
		assert.Equal(t, "user-1", remote.UserID)
		assert.Equal(t, local.XP, remote.XP, "run %d", run)

		require.NoError(t, app.Close())
	}
}

func TestNewReusesStoredIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	cfg := testConfig(t, srv.BaseURL())

	first, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{Logger: logger.NewNop()})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{Logger: logger.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	profile, err := second.ProfileCLI.Show(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.UserID)
}

func TestNewOfflineKeepsWritesLocal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	cfg := testConfig(t, srv.BaseURL())
	cfg.Offline = true

	app, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{Logger: logger.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	_, err = app.SessionCLI.Save(ctx, sessiondto.SaveInput{Type: "breathwork", Pattern: "box", Duration: 5, Completed: true})
	require.NoError(t, err)

	list, err := app.SessionCLI.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	status := app.SyncCLI.Status(ctx)
	assert.False(t, status.Online)
	assert.Empty(t, srv.Calls())
}

func TestNewRejectsBadTimezone(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t, "")
	cfg.Timezone = "Mars/Olympus"

	_, err := bootstrap.NewWithOptions(context.Background(), cfg, bootstrap.Options{Logger: logger.NewNop()})
	require.Error(t, err)
}
