package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sacredsound/internal/modules/sync/domain"
	syncin "sacredsound/internal/modules/sync/port/in"
	syncout "sacredsound/internal/modules/sync/port/out"
	"sacredsound/internal/platform/clock"
	apperrors "sacredsound/internal/platform/errors"
	"sacredsound/internal/platform/events"
	"sacredsound/internal/platform/logger"
)

const DefaultMaxAttempts = 25

type Options struct {
	// MaxAttempts parks a queue entry after that many failed deliveries.
	// Zero retries forever.
	MaxAttempts int
	Offline     bool
}

type Status struct {
	Online           bool
	BackendAvailable bool
	Pending          int
	Parked           int
	ByCollection     map[domain.Collection]int
	LastDrain        time.Time
}

type DrainReport struct {
	Attempted int
	Applied   int
	Failed    int
	Parked    int
	Aborted   bool
	Skipped   bool
}

// Coordinator routes reads and writes between the local store and the
// backend, queueing writes the backend could not take.
type Coordinator struct {
	log       *logger.Logger
	local     syncout.LocalStore
	remote    syncout.Remote
	publisher events.Publisher
	clock     clock.Clock
	maxTries  int

	mu               sync.Mutex
	online           bool
	backendAvailable bool
	queue            []domain.QueueEntry
	lastDrain        time.Time
	collLocks        map[domain.Collection]*sync.Mutex

	drainMu sync.Mutex
	probes  singleflight.Group
}

var _ syncin.Store = (*Coordinator)(nil)

func NewCoordinator(ctx context.Context, log *logger.Logger, local syncout.LocalStore, remote syncout.Remote, publisher events.Publisher, clk clock.Clock, opts Options) (*Coordinator, error) {
	if local == nil {
		return nil, fmt.Errorf("local store is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if publisher == nil {
		publisher = events.Discard{}
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if opts.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: max attempts must be non-negative", apperrors.ErrInvalidInput)
	}
	queue, err := local.ListQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sync queue: %w", err)
	}
	return &Coordinator{
		log:       log.With("service", "SyncCoordinator"),
		local:     local,
		remote:    remote,
		publisher: publisher,
		clock:     clk,
		maxTries:  opts.MaxAttempts,
		online:    !opts.Offline,
		queue:     queue,
		collLocks: map[domain.Collection]*sync.Mutex{},
	}, nil
}

// ---- reads ----

// Get serves a local hit; on a miss it reads through to the backend and
// stores what it finds. A miss everywhere is (nil, false, nil).
func (c *Coordinator) Get(ctx context.Context, collection domain.Collection, key string) (json.RawMessage, bool, error) {
	record, ok, err := c.local.Get(ctx, collection, key)
	if err != nil || ok {
		return record, ok, err
	}
	if !c.mirrored(collection) || !c.reachable() {
		return nil, false, nil
	}
	record, ok, err = c.remote.Fetch(ctx, collection, key)
	if err != nil {
		c.remoteFailed("fetch", collection, key, err)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	if err := c.local.Put(ctx, collection, record); err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// GetAll prefers the backend view, refreshed into the local store and
// overlaid with writes still waiting in the queue. Without the backend it
// serves the local collection.
func (c *Coordinator) GetAll(ctx context.Context, collection domain.Collection) ([]json.RawMessage, error) {
	if !c.mirrored(collection) || !c.reachable() {
		return c.local.GetAll(ctx, collection)
	}
	remote, err := c.remote.FetchAll(ctx, collection)
	if err != nil {
		c.remoteFailed("fetch all", collection, "", err)
		return c.local.GetAll(ctx, collection)
	}
	pending := c.pendingWrites(collection)
	out := make([]json.RawMessage, 0, len(remote)+len(pending.order))
	seen := map[string]bool{}
	for _, record := range remote {
		key, err := domain.RecordKey(record)
		if err != nil {
			c.log.Warn("remote record without id", "collection", collection, "error", err)
			continue
		}
		seen[key] = true
		if pending.deleted[key] {
			continue
		}
		if payload, ok := pending.set[key]; ok {
			out = append(out, payload)
			continue
		}
		if err := c.local.Put(ctx, collection, record); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	for _, key := range pending.order {
		if payload, ok := pending.set[key]; ok && !seen[key] {
			out = append(out, payload)
		}
	}
	return out, nil
}

type pendingView struct {
	set     map[string]json.RawMessage
	deleted map[string]bool
	order   []string
}

// pendingWrites folds the queued entries of a collection into the net
// effect each key is still waiting for.
func (c *Coordinator) pendingWrites(collection domain.Collection) pendingView {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := pendingView{set: map[string]json.RawMessage{}, deleted: map[string]bool{}}
	for _, entry := range c.queue {
		if entry.Collection != collection {
			continue
		}
		switch entry.Action {
		case domain.ActionSet:
			if _, seen := view.set[entry.Key]; !seen {
				view.order = append(view.order, entry.Key)
			}
			view.set[entry.Key] = entry.Payload
			delete(view.deleted, entry.Key)
		case domain.ActionDelete:
			delete(view.set, entry.Key)
			view.deleted[entry.Key] = true
		}
	}
	return view
}

// GetByIndex answers from the local store only.
func (c *Coordinator) GetByIndex(ctx context.Context, collection domain.Collection, index domain.Index, query domain.IndexQuery) ([]json.RawMessage, error) {
	return c.local.GetAllByIndex(ctx, collection, index, query)
}

// ---- writes ----

func (c *Coordinator) Set(ctx context.Context, collection domain.Collection, record json.RawMessage) error {
	key, err := domain.RecordKey(record)
	if err != nil {
		return err
	}
	if err := c.local.Put(ctx, collection, record); err != nil {
		return err
	}
	return c.push(ctx, collection, domain.ActionSet, key, record)
}

func (c *Coordinator) Delete(ctx context.Context, collection domain.Collection, key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", apperrors.ErrInvalidInput)
	}
	if err := c.local.Delete(ctx, collection, key); err != nil {
		return err
	}
	return c.push(ctx, collection, domain.ActionDelete, key, nil)
}

// PutDirect writes locally and offers the record to the backend once,
// without queueing on failure.
func (c *Coordinator) PutDirect(ctx context.Context, collection domain.Collection, record json.RawMessage) error {
	key, err := domain.RecordKey(record)
	if err != nil {
		return err
	}
	if err := c.local.Put(ctx, collection, record); err != nil {
		return err
	}
	if !c.mirrored(collection) || !c.reachable() {
		return nil
	}
	if err := c.remote.Apply(ctx, collection, domain.ActionSet, key, record); err != nil {
		c.remoteFailed("direct put", collection, key, err)
	}
	return nil
}

// ClearLocal wipes every local collection and the queue.
func (c *Coordinator) ClearLocal(ctx context.Context) error {
	c.drainMu.Lock()
	defer c.drainMu.Unlock()
	if err := c.local.ClearAll(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.queue = nil
	c.mu.Unlock()
	return nil
}

// push delivers a local mutation to the backend, or queues it when the
// backend is unreachable, rejects it, or still owes earlier entries of the
// same collection. Earlier entries get one drain pass first.
func (c *Coordinator) push(ctx context.Context, collection domain.Collection, action domain.Action, key string, payload json.RawMessage) error {
	if !c.mirrored(collection) {
		return nil
	}
	if c.reachable() && c.pendingFor(collection) > 0 {
		if _, err := c.Drain(ctx); err != nil {
			return err
		}
	}
	unlock := c.lockCollection(collection)
	defer unlock()

	if c.reachable() && c.pendingFor(collection) == 0 {
		err := c.remote.Apply(ctx, collection, action, key, payload)
		if err == nil {
			return nil
		}
		c.remoteFailed(string(action), collection, key, err)
	}
	entry, err := c.local.Enqueue(ctx, domain.QueueEntry{
		Collection: collection,
		Action:     action,
		Key:        key,
		Payload:    payload,
		Timestamp:  c.clock.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("enqueue %s %s/%s: %w", action, collection, key, err)
	}
	c.mu.Lock()
	c.queue = append(c.queue, entry)
	c.mu.Unlock()
	c.log.Debug("queued for sync", "collection", collection, "action", action, "key", key, "seq", entry.Seq)
	return nil
}

// ---- drain ----

// Drain replays queued entries in order. Only one drain runs at a time; a
// concurrent call returns a skipped report. Each entry is tried once per
// pass, a rejected entry holds back the rest of its collection, and a
// network failure ends the pass.
func (c *Coordinator) Drain(ctx context.Context) (DrainReport, error) {
	if !c.drainMu.TryLock() {
		return DrainReport{Skipped: true}, nil
	}
	defer c.drainMu.Unlock()

	report := DrainReport{}
	if c.remote == nil || !c.reachable() {
		report.Skipped = true
		return report, nil
	}

	blocked := map[domain.Collection]bool{}
	for _, entry := range c.snapshot() {
		if entry.Parked || blocked[entry.Collection] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		applied, stop, err := c.deliver(ctx, entry, &report)
		if err != nil {
			return report, err
		}
		if stop {
			report.Aborted = true
			break
		}
		if !applied {
			blocked[entry.Collection] = true
		}
	}

	c.mu.Lock()
	c.lastDrain = c.clock.Now()
	c.mu.Unlock()
	if report.Applied > 0 {
		c.publisher.Publish(ctx, events.Event{Kind: events.KindSyncDrained, OccurredAt: c.clock.Now(), Data: map[string]any{
			"applied": report.Applied,
			"pending": c.pendingTotal(),
		}})
	}
	c.log.Info("sync drain finished", "attempted", report.Attempted, "applied", report.Applied, "failed", report.Failed, "parked", report.Parked, "aborted", report.Aborted)
	return report, nil
}

// deliver applies one entry. stop reports that the pass must end.
func (c *Coordinator) deliver(ctx context.Context, entry domain.QueueEntry, report *DrainReport) (applied, stop bool, err error) {
	unlock := c.lockCollection(entry.Collection)
	defer unlock()

	applyErr := c.remote.Apply(ctx, entry.Collection, entry.Action, entry.Key, entry.Payload)
	if applyErr == nil {
		if err := c.local.RemoveQueueEntry(ctx, entry.Seq); err != nil {
			return false, true, err
		}
		c.forget(entry.Seq)
		report.Applied++
		return true, false, nil
	}
	if apperrors.IsNetwork(applyErr) || errors.Is(applyErr, apperrors.ErrNotLoggedIn) {
		c.remoteFailed("drain", entry.Collection, entry.Key, applyErr)
		return false, true, nil
	}

	entry.RetryCount++
	entry.LastError = applyErr.Error()
	if c.maxTries > 0 && entry.RetryCount >= c.maxTries {
		entry.Parked = true
		report.Parked++
		c.log.Warn("sync entry parked", "seq", entry.Seq, "collection", entry.Collection, "key", entry.Key, "attempts", entry.RetryCount, "error", applyErr)
	} else {
		c.log.Warn("sync entry rejected", "seq", entry.Seq, "collection", entry.Collection, "key", entry.Key, "attempts", entry.RetryCount, "error", applyErr)
	}
	if err := c.local.UpdateQueueEntry(ctx, entry); err != nil {
		return false, true, err
	}
	c.replace(entry)
	report.Failed++
	return false, false, nil
}

// RequeueParked re-arms every parked entry with a fresh retry budget.
func (c *Coordinator) RequeueParked(ctx context.Context) (int, error) {
	count := 0
	for _, entry := range c.snapshot() {
		if !entry.Parked {
			continue
		}
		entry.Parked = false
		entry.RetryCount = 0
		if err := c.local.UpdateQueueEntry(ctx, entry); err != nil {
			return count, err
		}
		c.replace(entry)
		count++
	}
	return count, nil
}

// ---- connectivity ----

// SetOnline records the device connectivity. Going online probes the
// backend.
func (c *Coordinator) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()
	was := c.online
	c.online = online
	c.mu.Unlock()
	if was == online {
		return
	}
	c.publisher.Publish(ctx, events.Event{Kind: events.KindConnectivityChanged, OccurredAt: c.clock.Now(), Data: map[string]any{"online": online}})
	if online {
		c.Probe(ctx)
		return
	}
	c.setBackendAvailable(ctx, false)
}

// Probe checks backend health; concurrent probes share one request. When
// the backend comes back the queue is drained.
func (c *Coordinator) Probe(ctx context.Context) bool {
	if c.remote == nil {
		return false
	}
	c.mu.Lock()
	online := c.online
	c.mu.Unlock()
	if !online {
		return false
	}
	v, _, _ := c.probes.Do("health", func() (any, error) {
		return c.remote.HealthCheck(ctx), nil
	})
	healthy, _ := v.(bool)
	if c.setBackendAvailable(ctx, healthy) && healthy && c.pendingTotal() > 0 {
		if _, err := c.Drain(ctx); err != nil {
			c.log.Error("drain after reconnect failed", "error", err)
		}
	}
	return healthy
}

// setBackendAvailable reports whether the value changed.
func (c *Coordinator) setBackendAvailable(ctx context.Context, available bool) bool {
	c.mu.Lock()
	changed := c.backendAvailable != available
	c.backendAvailable = available
	c.mu.Unlock()
	if !changed {
		return false
	}
	c.log.Info("backend availability changed", "available", available)
	c.publisher.Publish(ctx, events.Event{Kind: events.KindConnectivityChanged, OccurredAt: c.clock.Now(), Data: map[string]any{"backendAvailable": available}})
	return true
}

func (c *Coordinator) Status(context.Context) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := Status{
		Online:           c.online,
		BackendAvailable: c.backendAvailable,
		ByCollection:     map[domain.Collection]int{},
		LastDrain:        c.lastDrain,
	}
	for _, entry := range c.queue {
		if entry.Parked {
			status.Parked++
			continue
		}
		status.Pending++
		status.ByCollection[entry.Collection]++
	}
	return status
}

// Queue returns the queued entries in seq order.
func (c *Coordinator) Queue(context.Context) []domain.QueueEntry {
	return c.snapshot()
}

// ---- helpers ----

func (c *Coordinator) mirrored(collection domain.Collection) bool {
	return c.remote != nil && c.remote.Supports(collection)
}

func (c *Coordinator) reachable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online && c.backendAvailable
}

func (c *Coordinator) remoteFailed(op string, collection domain.Collection, key string, err error) {
	c.log.Warn("remote call failed", "op", op, "collection", collection, "key", key, "error", err)
	if apperrors.IsNetwork(err) {
		c.setBackendAvailable(context.Background(), false)
	}
}

func (c *Coordinator) lockCollection(collection domain.Collection) func() {
	c.mu.Lock()
	lock, ok := c.collLocks[collection]
	if !ok {
		lock = &sync.Mutex{}
		c.collLocks[collection] = lock
	}
	c.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func (c *Coordinator) pendingFor(collection domain.Collection) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, entry := range c.queue {
		if entry.Collection == collection && !entry.Parked {
			n++
		}
	}
	return n
}

func (c *Coordinator) pendingTotal() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, entry := range c.queue {
		if !entry.Parked {
			n++
		}
	}
	return n
}

func (c *Coordinator) snapshot() []domain.QueueEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]domain.QueueEntry(nil), c.queue...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (c *Coordinator) forget(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range c.queue {
		if entry.Seq == seq {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}

func (c *Coordinator) replace(entry domain.QueueEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.queue {
		if c.queue[i].Seq == entry.Seq {
			c.queue[i] = entry
			return
		}
	}
}
