package out

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sacredsound/internal/modules/session/domain"
	sessionout "sacredsound/internal/modules/session/port/out"
	syncdomain "sacredsound/internal/modules/sync/domain"
	syncin "sacredsound/internal/modules/sync/port/in"
)

// SyncedSessionStore keeps sessions and custom sessions in the offline-first
// store. Records that do not decode are skipped when listing.
type SyncedSessionStore struct {
	store syncin.Store
}

var (
	_ sessionout.SessionStore       = (*SyncedSessionStore)(nil)
	_ sessionout.CustomSessionStore = (*SyncedSessionStore)(nil)
)

func NewSyncedSessionStore(store syncin.Store) *SyncedSessionStore {
	return &SyncedSessionStore{store: store}
}

func (s *SyncedSessionStore) Save(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.store.Set(ctx, syncdomain.CollectionSessions, raw)
}

func (s *SyncedSessionStore) Get(ctx context.Context, id string) (domain.Session, bool, error) {
	raw, ok, err := s.store.Get(ctx, syncdomain.CollectionSessions, id)
	if err != nil || !ok {
		return domain.Session{}, false, err
	}
	session := domain.Session{}
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, true, nil
}

func (s *SyncedSessionStore) List(ctx context.Context) ([]domain.Session, error) {
	records, err := s.store.GetAll(ctx, syncdomain.CollectionSessions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Session](records), nil
}

func (s *SyncedSessionStore) Range(ctx context.Context, from, to time.Time) ([]domain.Session, error) {
	query := syncdomain.Between(from.UnixMilli(), to.UnixMilli())
	records, err := s.store.GetByIndex(ctx, syncdomain.CollectionSessions, syncdomain.IndexDate, query)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Session](records), nil
}

func (s *SyncedSessionStore) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, syncdomain.CollectionSessions, id)
}

func (s *SyncedSessionStore) SaveCustom(ctx context.Context, custom domain.CustomSession) error {
	raw, err := json.Marshal(custom)
	if err != nil {
		return fmt.Errorf("encode custom session: %w", err)
	}
	return s.store.Set(ctx, syncdomain.CollectionCustomSessions, raw)
}

func (s *SyncedSessionStore) GetCustom(ctx context.Context, id string) (domain.CustomSession, bool, error) {
	raw, ok, err := s.store.Get(ctx, syncdomain.CollectionCustomSessions, id)
	if err != nil || !ok {
		return domain.CustomSession{}, false, err
	}
	custom := domain.CustomSession{}
	if err := json.Unmarshal(raw, &custom); err != nil {
		return domain.CustomSession{}, false, fmt.Errorf("decode custom session %s: %w", id, err)
	}
	return custom, true, nil
}

func (s *SyncedSessionStore) ListCustom(ctx context.Context) ([]domain.CustomSession, error) {
	records, err := s.store.GetAll(ctx, syncdomain.CollectionCustomSessions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.CustomSession](records), nil
}

func (s *SyncedSessionStore) DeleteCustom(ctx context.Context, id string) error {
	return s.store.Delete(ctx, syncdomain.CollectionCustomSessions, id)
}

func decodeAll[T any](records []json.RawMessage) []T {
	out := make([]T, 0, len(records))
	for _, raw := range records {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		out = append(out, item)
	}
	return out
}
