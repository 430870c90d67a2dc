package out

import (
	"context"
	"encoding/json"

	"sacredsound/internal/modules/sync/domain"
)

// LocalStore is the durable on-device store. Every engine failure is
// reported wrapped in apperrors.ErrStorageUnavailable.
type LocalStore interface {
	Get(ctx context.Context, collection domain.Collection, key string) (json.RawMessage, bool, error)
	GetAll(ctx context.Context, collection domain.Collection) ([]json.RawMessage, error)
	GetAllByIndex(ctx context.Context, collection domain.Collection, index domain.Index, query domain.IndexQuery) ([]json.RawMessage, error)
	Put(ctx context.Context, collection domain.Collection, record json.RawMessage) error
	Delete(ctx context.Context, collection domain.Collection, key string) error
	ClearAll(ctx context.Context) error

	Enqueue(ctx context.Context, entry domain.QueueEntry) (domain.QueueEntry, error)
	ListQueue(ctx context.Context) ([]domain.QueueEntry, error)
	RemoveQueueEntry(ctx context.Context, seq int64) error
	UpdateQueueEntry(ctx context.Context, entry domain.QueueEntry) error
}

// Remote mirrors collections onto the backend.
type Remote interface {
	Supports(collection domain.Collection) bool
	Fetch(ctx context.Context, collection domain.Collection, key string) (json.RawMessage, bool, error)
	FetchAll(ctx context.Context, collection domain.Collection) ([]json.RawMessage, error)
	Apply(ctx context.Context, collection domain.Collection, action domain.Action, key string, payload json.RawMessage) error
	HealthCheck(ctx context.Context) bool
}
