package out

import (
	"context"
	"encoding/json"
	"time"

	"sacredsound/internal/modules/analytics/domain"
	analyticsout "sacredsound/internal/modules/analytics/port/out"
	profilein "sacredsound/internal/modules/profile/port/in"
	sessiondomain "sacredsound/internal/modules/session/domain"
	syncdomain "sacredsound/internal/modules/sync/domain"
	syncin "sacredsound/internal/modules/sync/port/in"
)

type SyncedSessionSource struct {
	store syncin.Store
}

var _ analyticsout.SessionSource = (*SyncedSessionSource)(nil)

func NewSyncedSessionSource(store syncin.Store) *SyncedSessionSource {
	return &SyncedSessionSource{store: store}
}

func (s *SyncedSessionSource) Entries(ctx context.Context) ([]domain.Entry, error) {
	records, err := s.store.GetAll(ctx, syncdomain.CollectionSessions)
	if err != nil {
		return nil, err
	}
	return toEntries(records), nil
}

func (s *SyncedSessionSource) Range(ctx context.Context, from, to time.Time) ([]domain.Entry, error) {
	records, err := s.store.GetByIndex(ctx, syncdomain.CollectionSessions, syncdomain.IndexDate, syncdomain.Between(from.UnixMilli(), to.UnixMilli()))
	if err != nil {
		return nil, err
	}
	return toEntries(records), nil
}

func toEntries(records []json.RawMessage) []domain.Entry {
	out := make([]domain.Entry, 0, len(records))
	for _, raw := range records {
		s := sessiondomain.Session{}
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		out = append(out, domain.Entry{
			ID:            s.ID,
			Date:          s.Time(),
			Type:          string(s.Type),
			Pattern:       s.Pattern,
			GuidedSession: s.GuidedSession,
			Duration:      s.Duration,
			Sounds:        s.Sounds,
			MoodBefore:    s.MoodBefore,
			MoodAfter:     s.MoodAfter,
			Completed:     s.Completed,
			Notes:         s.Notes,
		})
	}
	return out
}

type ProfileFactsSource struct {
	profiles profilein.Usecase
}

var _ analyticsout.ProfileSource = (*ProfileFactsSource)(nil)

func NewProfileFactsSource(profiles profilein.Usecase) *ProfileFactsSource {
	return &ProfileFactsSource{profiles: profiles}
}

func (p *ProfileFactsSource) Facts(ctx context.Context) (domain.ProfileFacts, error) {
	profile, err := p.profiles.GetProfile(ctx)
	if err != nil {
		return domain.ProfileFacts{}, err
	}
	return domain.ProfileFacts{
		FavoritePatterns: profile.Preferences.FavoriteBreathPatterns,
		CurrentStreak:    profile.Stats.CurrentStreak,
		LongestStreak:    profile.Stats.LongestStreak,
	}, nil
}
