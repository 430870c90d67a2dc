package out

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"sacredsound/internal/modules/profile/domain"
	profileout "sacredsound/internal/modules/profile/port/out"
	syncdomain "sacredsound/internal/modules/sync/domain"
	syncin "sacredsound/internal/modules/sync/port/in"
	"sacredsound/internal/platform/clock"
)

// SyncedProfileStore persists the profile through the sync coordinator so
// profile writes follow the same offline queue as everything else.
type SyncedProfileStore struct {
	store syncin.Store
}

var (
	_ profileout.ProfileStore = (*SyncedProfileStore)(nil)
	_ profileout.SessionLog   = (*SyncedProfileStore)(nil)
)

func NewSyncedProfileStore(store syncin.Store) *SyncedProfileStore {
	return &SyncedProfileStore{store: store}
}

func (s *SyncedProfileStore) Load(ctx context.Context) (domain.Profile, bool, error) {
	raw, ok, err := s.store.Get(ctx, syncdomain.CollectionUserProfile, syncdomain.PrimaryProfileKey)
	if err != nil || !ok {
		return domain.Profile{}, false, err
	}
	profile := domain.Profile{}
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.Profile{}, false, fmt.Errorf("decode profile: %w", err)
	}
	profile.ID = syncdomain.PrimaryProfileKey
	return profile, true, nil
}

func (s *SyncedProfileStore) Save(ctx context.Context, profile domain.Profile) error {
	profile.ID = syncdomain.PrimaryProfileKey
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return s.store.Set(ctx, syncdomain.CollectionUserProfile, raw)
}

// Dates lists the start time of every locally recorded session.
func (s *SyncedProfileStore) Dates(ctx context.Context) ([]time.Time, error) {
	records, err := s.store.GetByIndex(ctx, syncdomain.CollectionSessions, syncdomain.IndexDate, syncdomain.Between(math.MinInt64, math.MaxInt64))
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(records))
	for _, raw := range records {
		probe := struct {
			Date int64 `json:"date"`
		}{}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		out = append(out, clock.FromMillis(probe.Date))
	}
	return out, nil
}
