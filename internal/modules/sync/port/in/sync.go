package in

import (
	"context"
	"encoding/json"

	"sacredsound/internal/modules/sync/domain"
	"sacredsound/internal/modules/sync/dto"
)

// Store is the offline-first record API other modules persist through.
type Store interface {
	Get(ctx context.Context, collection domain.Collection, key string) (json.RawMessage, bool, error)
	GetAll(ctx context.Context, collection domain.Collection) ([]json.RawMessage, error)
	GetByIndex(ctx context.Context, collection domain.Collection, index domain.Index, query domain.IndexQuery) ([]json.RawMessage, error)
	Set(ctx context.Context, collection domain.Collection, record json.RawMessage) error
	Delete(ctx context.Context, collection domain.Collection, key string) error
	PutDirect(ctx context.Context, collection domain.Collection, record json.RawMessage) error
	ClearLocal(ctx context.Context) error
}

type Usecase interface {
	Status(ctx context.Context) dto.StatusOutput
	Flush(ctx context.Context) (dto.DrainOutput, error)
	SetOnline(ctx context.Context, online bool) dto.StatusOutput
	Probe(ctx context.Context) dto.StatusOutput
	RequeueParked(ctx context.Context) (int, error)
	ListQueue(ctx context.Context) []dto.QueueEntryOutput
}
