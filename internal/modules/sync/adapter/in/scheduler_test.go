package in_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncadapter "sacredsound/internal/modules/sync/adapter/in"
	"sacredsound/internal/modules/sync/dto"
)

const tick = 5 * time.Millisecond

type fakeSync struct {
	mu      sync.Mutex
	status  dto.StatusOutput
	probes  int
	flushes int
}

func (f *fakeSync) Status(context.Context) dto.StatusOutput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSync) Flush(context.Context) (dto.DrainOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	applied := f.status.Pending
	f.status.Pending = 0
	return dto.DrainOutput{Applied: applied}, nil
}

func (f *fakeSync) SetOnline(ctx context.Context, online bool) dto.StatusOutput {
	f.mu.Lock()
	f.status.Online = online
	f.mu.Unlock()
	return f.Status(ctx)
}

func (f *fakeSync) Probe(ctx context.Context) dto.StatusOutput {
	f.mu.Lock()
	f.probes++
	f.mu.Unlock()
	return f.Status(ctx)
}

func (f *fakeSync) RequeueParked(context.Context) (int, error) { return 0, nil }

func (f *fakeSync) ListQueue(context.Context) []dto.QueueEntryOutput { return nil }

func (f *fakeSync) counts() (probes, flushes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes, f.flushes
}

func (f *fakeSync) setStatus(status dto.StatusOutput) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func startScheduler(t *testing.T, usecase *fakeSync) *syncadapter.Scheduler {
	t.Helper()
	s, err := syncadapter.NewScheduler(nil, usecase, tick, tick)
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestSchedulerRejectsNonPositiveIntervals(t *testing.T) {
	t.Parallel()
	_, err := syncadapter.NewScheduler(nil, &fakeSync{}, 0, time.Second)
	require.Error(t, err)
	_, err = syncadapter.NewScheduler(nil, &fakeSync{}, time.Second, -time.Second)
	require.Error(t, err)
}

func TestSchedulerProbesOnlyWhileBackendIsDown(t *testing.T) {
	t.Parallel()
	usecase := &fakeSync{status: dto.StatusOutput{Online: false, Pending: 3}}
	startScheduler(t, usecase)

	assert.Never(t, func() bool {
		probes, flushes := usecase.counts()
		return probes > 0 || flushes > 0
	}, 60*time.Millisecond, tick, "offline device must not reach for the backend")

	usecase.setStatus(dto.StatusOutput{Online: true, BackendAvailable: false, Pending: 3})
	assert.Eventually(t, func() bool {
		probes, _ := usecase.counts()
		return probes > 0
	}, time.Second, tick)
	_, flushes := usecase.counts()
	assert.Zero(t, flushes, "drain waits for the backend")
}

func TestSchedulerDrainsOnlyWhilePending(t *testing.T) {
	t.Parallel()
	usecase := &fakeSync{status: dto.StatusOutput{Online: true, BackendAvailable: true}}
	startScheduler(t, usecase)

	assert.Never(t, func() bool {
		probes, flushes := usecase.counts()
		return probes > 0 || flushes > 0
	}, 60*time.Millisecond, tick)

	usecase.setStatus(dto.StatusOutput{Online: true, BackendAvailable: true, Pending: 2})
	assert.Eventually(t, func() bool {
		_, flushes := usecase.counts()
		return flushes > 0
	}, time.Second, tick)
	assert.Zero(t, usecase.Status(context.Background()).Pending)
	probes, _ := usecase.counts()
	assert.Zero(t, probes, "a reachable backend needs no probe")
}

func TestSchedulerShutdownStopsJobs(t *testing.T) {
	t.Parallel()
	usecase := &fakeSync{status: dto.StatusOutput{Online: true}}
	s, err := syncadapter.NewScheduler(nil, usecase, tick, tick)
	require.NoError(t, err)
	s.Start()

	assert.Eventually(t, func() bool {
		probes, _ := usecase.counts()
		return probes > 0
	}, time.Second, tick)
	require.NoError(t, s.Shutdown())

	stopped, _ := usecase.counts()
	time.Sleep(10 * tick)
	after, _ := usecase.counts()
	assert.Equal(t, stopped, after)
}
