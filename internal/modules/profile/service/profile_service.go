package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sacredsound/internal/modules/profile/domain"
	profileout "sacredsound/internal/modules/profile/port/out"
	"sacredsound/internal/platform/clock"
	apperrors "sacredsound/internal/platform/errors"
	"sacredsound/internal/platform/events"
	"sacredsound/internal/platform/logger"
	"sacredsound/internal/platform/tx"
)

// ProfileService owns the profile aggregate. Every mutation runs inside the
// writer section so concurrent read-modify-write cycles never lose updates.
type ProfileService struct {
	log       *logger.Logger
	clock     clock.Clock
	loc       *time.Location
	store     profileout.ProfileStore
	sessions  profileout.SessionLog
	identity  profileout.Identity
	writer    tx.Manager
	publisher events.Publisher
}

type Deps struct {
	Log       *logger.Logger
	Clock     clock.Clock
	Location  *time.Location
	Store     profileout.ProfileStore
	Sessions  profileout.SessionLog
	Identity  profileout.Identity
	Writer    tx.Manager
	Publisher events.Publisher
}

func NewProfileService(deps Deps) *ProfileService {
	s := &ProfileService{
		log:       deps.Log,
		clock:     deps.Clock,
		loc:       deps.Location,
		store:     deps.Store,
		sessions:  deps.Sessions,
		identity:  deps.Identity,
		writer:    deps.Writer,
		publisher: deps.Publisher,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.With("service", "ProfileService")
	if s.clock == nil {
		s.clock = clock.SystemClock{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.writer == nil {
		s.writer = tx.NewSerializer()
	}
	if s.publisher == nil {
		s.publisher = events.Discard{}
	}
	return s
}

// Get returns the profile, creating the default one on first use.
func (s *ProfileService) Get(ctx context.Context) (domain.Profile, error) {
	var out domain.Profile
	err := s.writer.Within(ctx, func(ctx context.Context) error {
		profile, err := s.load(ctx)
		out = profile
		return err
	})
	return out, err
}

// load must run inside the writer section.
func (s *ProfileService) load(ctx context.Context) (domain.Profile, error) {
	profile, ok, err := s.store.Load(ctx)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if ok {
		profile.Normalize()
		return profile, nil
	}
	profile = domain.NewDefault(s.clock.Now())
	if err := s.store.Save(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	s.log.Info("created default profile")
	return profile, nil
}

// mutate loads, applies fn and saves, all inside the writer section. fn
// returning false skips the save.
func (s *ProfileService) mutate(ctx context.Context, fn func(p *domain.Profile) (bool, error)) (domain.Profile, error) {
	var out domain.Profile
	err := s.writer.Within(ctx, func(ctx context.Context) error {
		profile, err := s.load(ctx)
		if err != nil {
			return err
		}
		changed, err := fn(&profile)
		if err != nil {
			return err
		}
		if changed {
			profile.LastAccess = s.clock.Now().UnixMilli()
			if err := s.store.Save(ctx, profile); err != nil {
				return fmt.Errorf("save profile: %w", err)
			}
		}
		out = profile
		return nil
	})
	return out, err
}

type RecordResult struct {
	Profile   domain.Profile
	XPGained  int
	Level     domain.LevelChange
	Duplicate bool
}

// RecordSession folds a saved session into the profile. A session id that
// was already recorded returns the current profile unchanged.
func (s *ProfileService) RecordSession(ctx context.Context, facts domain.SessionFacts) (RecordResult, error) {
	if facts.Duration < 0 {
		return RecordResult{}, fmt.Errorf("%w: duration must be non-negative", apperrors.ErrInvalidInput)
	}
	result := RecordResult{}
	profile, err := s.mutate(ctx, func(p *domain.Profile) (bool, error) {
		if facts.ID != "" && p.Seen(facts.ID) {
			result.Duplicate = true
			return false, nil
		}
		xpBefore := p.XP
		result.Level = p.ApplySession(facts, s.loc)
		result.XPGained = p.XP - xpBefore
		if err := s.refreshCounters(ctx, p); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return RecordResult{}, err
	}
	result.Profile = profile
	if result.Duplicate {
		s.log.Debug("session already recorded", "session_id", facts.ID)
		return result, nil
	}
	if result.Level.Up() {
		s.publishLevelUp(ctx, result.Level, profile.XP)
	}
	return result, nil
}

// refreshCounters recomputes the rolling counters from the session log.
func (s *ProfileService) refreshCounters(ctx context.Context, p *domain.Profile) error {
	if s.sessions == nil {
		return nil
	}
	now := s.clock.Now().In(s.loc)
	today := clock.StartOfDay(now, s.loc)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.loc)

	all, err := s.sessions.Dates(ctx)
	if err != nil {
		return fmt.Errorf("read session log: %w", err)
	}
	week, month := 0, 0
	for _, date := range all {
		if !date.Before(weekStart) {
			week++
		}
		if !date.Before(monthStart) {
			month++
		}
	}
	p.Stats.SessionsThisWeek = week
	p.Stats.SessionsThisMonth = month
	p.Stats.FavoriteTimeOfDay = domain.FavoriteTimeOfDay(all, s.loc)
	return nil
}

// AddXP credits bonus xp (achievements) without touching session stats.
func (s *ProfileService) AddXP(ctx context.Context, amount int, reason string) (domain.Profile, error) {
	var change domain.LevelChange
	profile, err := s.mutate(ctx, func(p *domain.Profile) (bool, error) {
		var err error
		change, err = p.AddXP(amount)
		return amount > 0, err
	})
	if err != nil {
		return domain.Profile{}, err
	}
	s.log.Debug("xp awarded", "amount", amount, "reason", reason, "xp", profile.XP)
	if change.Up() {
		s.publishLevelUp(ctx, change, profile.XP)
	}
	return profile, nil
}

func (s *ProfileService) publishLevelUp(ctx context.Context, change domain.LevelChange, xp int) {
	s.log.Info("level up", "from", change.From, "to", change.To, "xp", xp)
	s.publisher.Publish(ctx, events.Event{
		Kind:       events.KindLevelUp,
		OccurredAt: s.clock.Now(),
		Data: map[string]any{
			"from":      change.From,
			"level":     change.To,
			"levelName": domain.LevelName(change.To),
			"xp":        xp,
		},
	})
}

func (s *ProfileService) UpdatePreference(ctx context.Context, key string, value json.RawMessage) (domain.Profile, error) {
	return s.mutate(ctx, func(p *domain.Profile) (bool, error) {
		if err := p.SetPreference(key, value); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (s *ProfileService) AddFavorite(ctx context.Context, kind domain.FavoriteKind, item string) (domain.Profile, error) {
	if item == "" {
		return domain.Profile{}, fmt.Errorf("%w: favorite item is required", apperrors.ErrInvalidInput)
	}
	return s.mutate(ctx, func(p *domain.Profile) (bool, error) {
		return p.AddFavorite(kind, item), nil
	})
}

func (s *ProfileService) RemoveFavorite(ctx context.Context, kind domain.FavoriteKind, item string) (domain.Profile, error) {
	return s.mutate(ctx, func(p *domain.Profile) (bool, error) {
		return p.RemoveFavorite(kind, item), nil
	})
}

// Reset replaces the profile with a fresh default, keeping the backend
// identity.
func (s *ProfileService) Reset(ctx context.Context) (domain.Profile, error) {
	return s.mutate(ctx, func(p *domain.Profile) (bool, error) {
		userID := p.UserID
		*p = domain.NewDefault(s.clock.Now())
		p.UserID = userID
		return true, nil
	})
}

// Login asks the backend for the canonical user id and stores it on the
// profile. Failure leaves the profile local-only.
func (s *ProfileService) Login(ctx context.Context) (domain.Profile, error) {
	if s.identity == nil {
		return s.Get(ctx)
	}
	current, err := s.Get(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	userID, err := s.identity.Login(ctx, current.UserID)
	if err != nil {
		s.log.Warn("backend login failed, staying local", "error", err)
		return current, nil
	}
	return s.mutate(ctx, func(p *domain.Profile) (bool, error) {
		if p.UserID == userID {
			return false, nil
		}
		p.UserID = userID
		return true, nil
	})
}
