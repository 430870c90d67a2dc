package events

import (
	"context"
	"sync"
	"time"
)

type Kind string

const (
	KindLevelUp             Kind = "level_up"
	KindAchievementUnlocked Kind = "achievement_unlocked"
	KindSessionSaved        Kind = "session_saved"
	KindSyncDrained         Kind = "sync_drained"
	KindConnectivityChanged Kind = "connectivity_changed"
)

type Event struct {
	Kind       Kind           `json:"kind"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher is the narrow port producers depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Sink forwards events outside the process.
type Sink interface {
	Forward(ctx context.Context, event Event) error
}

// Bus fans events out to in-process subscribers and optional sinks.
// Handlers run synchronously in the publisher's goroutine and must not
// publish back into the bus while holding their own locks.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
	sinks  []Sink
	onSink func(err error)
}

type subscription struct {
	kinds map[Kind]struct{}
	fn    func(Event)
}

func NewBus(sinks ...Sink) *Bus {
	return &Bus{subs: map[int]subscription{}, sinks: sinks}
}

// OnSinkError registers a callback for sink delivery failures.
func (b *Bus) OnSinkError(fn func(err error)) {
	b.mu.Lock()
	b.onSink = fn
	b.mu.Unlock()
}

// Subscribe registers fn for the given kinds (all kinds when empty) and
// returns a function that removes the subscription.
func (b *Bus) Subscribe(fn func(Event), kinds ...Kind) func() {
	filter := map[Kind]struct{}{}
	for _, kind := range kinds {
		filter[kind] = struct{}{}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = subscription{kinds: filter, fn: fn}
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.subs))
	for _, sub := range b.subs {
		if len(sub.kinds) > 0 {
			if _, ok := sub.kinds[event.Kind]; !ok {
				continue
			}
		}
		handlers = append(handlers, sub.fn)
	}
	sinks := append([]Sink(nil), b.sinks...)
	onSink := b.onSink
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
	for _, sink := range sinks {
		if err := sink.Forward(ctx, event); err != nil && onSink != nil {
			onSink(err)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}
