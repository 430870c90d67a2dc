package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacredsound/internal/modules/backup/domain"
	"sacredsound/internal/modules/backup/service"
	syncdomain "sacredsound/internal/modules/sync/domain"
	"sacredsound/internal/platform/codec"
	apperrors "sacredsound/internal/platform/errors"
)

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{objects: map[string][]byte{}}
}

func (m *memoryArchive) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[name] = append([]byte(nil), data...)
	return nil
}

func (m *memoryArchive) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, name)
	}
	return data, nil
}

func (m *memoryArchive) List(context.Context) ([]domain.ArchiveObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ArchiveObject, 0, len(m.objects))
	for name, data := range m.objects {
		out = append(out, domain.ArchiveObject{Name: name, Size: int64(len(data))})
	}
	return out, nil
}

func TestArchiveUploadAndRestoreNewest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	archive := newMemoryArchive()
	archive.objects["notes.txt"] = []byte("not a backup")

	source, _ := newStore(t)
	seed(t, source)
	first := service.NewArchiveService(nil, nil, service.NewBackupService(nil, fixedClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}, source), archive)
	older, _, err := first.Upload(ctx, codec.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "sacredsound-20240102T030405Z.yaml", older.Name)

	second := service.NewArchiveService(nil, nil, service.NewBackupService(nil, fixedClock{now: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}, source), archive)
	newer, snapshot, err := second.Upload(ctx, codec.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 5, snapshot.Count())
	assert.Positive(t, newer.Size)

	listed, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newer.Name, listed[0].Name)

	target, targetLocal := newStore(t)
	restorer := service.NewArchiveService(nil, nil, service.NewBackupService(nil, nil, target), archive)
	name, report, err := restorer.Restore(ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, newer.Name, name)
	assert.Equal(t, 2, report.Imported["sessions"])

	_, ok, err := targetLocal.Get(ctx, syncdomain.CollectionSessions, "session-2")
	require.NoError(t, err)
	assert.True(t, ok)

	name, _, err = restorer.Restore(ctx, older.Name, true)
	require.NoError(t, err)
	assert.Equal(t, older.Name, name)
}

func TestArchiveErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := newStore(t)
	backups := service.NewBackupService(nil, nil, store)

	disabled := service.NewArchiveService(nil, nil, backups, nil)
	_, _, err := disabled.Upload(ctx, codec.FormatJSON)
	require.ErrorIs(t, err, domain.ErrArchiveNotConfigured)
	_, err = disabled.List(ctx)
	require.ErrorIs(t, err, domain.ErrArchiveNotConfigured)

	archive := newMemoryArchive()
	svc := service.NewArchiveService(nil, nil, backups, archive)
	_, _, err = svc.Restore(ctx, "", false)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, _, err = svc.Restore(ctx, "sacredsound-19990101T000000Z.json", false)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	archive.putErr = errors.New("bucket unavailable")
	_, _, err = svc.Upload(ctx, codec.FormatJSON)
	require.Error(t, err)
	listed, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
