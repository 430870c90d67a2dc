package out

import (
	"context"
	"encoding/json"
	"fmt"

	"sacredsound/internal/modules/achievement/domain"
	achievementout "sacredsound/internal/modules/achievement/port/out"
	sessiondomain "sacredsound/internal/modules/session/domain"
	syncdomain "sacredsound/internal/modules/sync/domain"
	syncin "sacredsound/internal/modules/sync/port/in"
)

// SyncedUnlockStore keeps unlock records in the achievements collection.
type SyncedUnlockStore struct {
	store syncin.Store
}

var _ achievementout.UnlockStore = (*SyncedUnlockStore)(nil)

func NewSyncedUnlockStore(store syncin.Store) *SyncedUnlockStore {
	return &SyncedUnlockStore{store: store}
}

func (s *SyncedUnlockStore) List(ctx context.Context) ([]domain.Unlock, error) {
	records, err := s.store.GetAll(ctx, syncdomain.CollectionAchievements)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Unlock, 0, len(records))
	for _, raw := range records {
		unlock := domain.Unlock{}
		if err := json.Unmarshal(raw, &unlock); err != nil || unlock.ID == "" {
			continue
		}
		if unlock.XPBonus == 0 {
			if def, err := domain.Lookup(unlock.ID); err == nil {
				unlock.XPBonus = def.XPBonus
			}
		}
		out = append(out, unlock)
	}
	return out, nil
}

func (s *SyncedUnlockStore) Save(ctx context.Context, unlock domain.Unlock) error {
	raw, err := json.Marshal(unlock)
	if err != nil {
		return fmt.Errorf("encode unlock: %w", err)
	}
	return s.store.Set(ctx, syncdomain.CollectionAchievements, raw)
}

// SessionHistory reads the full session history for rule evaluation.
type SessionHistory struct {
	store syncin.Store
}

var _ achievementout.History = (*SessionHistory)(nil)

func NewSessionHistory(store syncin.Store) *SessionHistory {
	return &SessionHistory{store: store}
}

func (h *SessionHistory) Sessions(ctx context.Context) ([]domain.SessionFact, error) {
	records, err := h.store.GetAll(ctx, syncdomain.CollectionSessions)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SessionFact, 0, len(records))
	for _, raw := range records {
		session := sessiondomain.Session{}
		if err := json.Unmarshal(raw, &session); err != nil {
			continue
		}
		out = append(out, domain.SessionFact{
			Date:       session.Time(),
			Type:       string(session.Type),
			Pattern:    session.Pattern,
			Sounds:     session.Sounds,
			MoodBefore: session.MoodBefore,
			MoodAfter:  session.MoodAfter,
		})
	}
	return out, nil
}
