package tx

import (
	"context"
	"sync"
)

// Manager wraps a critical section around read-modify-write operations.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Serializer runs every fn one at a time. Nested calls from inside fn on the
// same Serializer deadlock; callers pass the inner context to helpers that
// must not re-enter.
type Serializer struct {
	mu sync.Mutex
}

func NewSerializer() *Serializer {
	return &Serializer{}
}

func (s *Serializer) Within(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}
