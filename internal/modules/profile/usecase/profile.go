package usecase

import (
	"context"

	"sacredsound/internal/modules/profile/domain"
	"sacredsound/internal/modules/profile/dto"
	profilein "sacredsound/internal/modules/profile/port/in"
	"sacredsound/internal/modules/profile/service"
	"sacredsound/internal/platform/clock"
)

type Interactor struct {
	svc *service.ProfileService
}

var (
	_ profilein.Usecase   = (*Interactor)(nil)
	_ profilein.Recorder  = (*Interactor)(nil)
	_ profilein.XPAwarder = (*Interactor)(nil)
)

func NewInteractor(svc *service.ProfileService) *Interactor {
	return &Interactor{svc: svc}
}

func (i *Interactor) GetProfile(ctx context.Context) (dto.ProfileOutput, error) {
	profile, err := i.svc.Get(ctx)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) RecordSession(ctx context.Context, input dto.SessionInput) (dto.RecordOutput, error) {
	result, err := i.svc.RecordSession(ctx, domain.SessionFacts{
		ID:        input.SessionID,
		Date:      input.Date,
		Type:      input.Type,
		Duration:  input.Duration,
		Completed: input.Completed,
	})
	if err != nil {
		return dto.RecordOutput{}, err
	}
	return dto.RecordOutput{
		Profile:   toOutput(result.Profile),
		XPGained:  result.XPGained,
		LevelUp:   result.Level.Up(),
		Duplicate: result.Duplicate,
	}, nil
}

func (i *Interactor) AwardXP(ctx context.Context, amount int, reason string) (dto.ProfileOutput, error) {
	profile, err := i.svc.AddXP(ctx, amount, reason)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) UpdatePreference(ctx context.Context, input dto.UpdatePreferenceInput) (dto.ProfileOutput, error) {
	profile, err := i.svc.UpdatePreference(ctx, input.Key, input.Value)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) AddFavorite(ctx context.Context, input dto.FavoriteInput) (dto.ProfileOutput, error) {
	kind, err := domain.ParseFavoriteKind(input.Kind)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	profile, err := i.svc.AddFavorite(ctx, kind, input.Item)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) RemoveFavorite(ctx context.Context, input dto.FavoriteInput) (dto.ProfileOutput, error) {
	kind, err := domain.ParseFavoriteKind(input.Kind)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	profile, err := i.svc.RemoveFavorite(ctx, kind, input.Item)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) Reset(ctx context.Context) (dto.ProfileOutput, error) {
	profile, err := i.svc.Reset(ctx)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func (i *Interactor) Login(ctx context.Context) (dto.ProfileOutput, error) {
	profile, err := i.svc.Login(ctx)
	if err != nil {
		return dto.ProfileOutput{}, err
	}
	return toOutput(profile), nil
}

func toOutput(p domain.Profile) dto.ProfileOutput {
	next, ok := domain.NextLevelXP(p.Level)
	out := dto.ProfileOutput{
		ID:          p.ID,
		UserID:      p.UserID,
		Created:     clock.FromMillis(p.Created),
		LastAccess:  clock.FromMillis(p.LastAccess),
		XP:          p.XP,
		Level:       p.Level,
		LevelName:   domain.LevelName(p.Level),
		NextLevelXP: next,
		MaxLevel:    !ok,
		Stats: dto.StatsOutput{
			TotalSessions:        p.Stats.TotalSessions,
			TotalMinutes:         p.Stats.TotalMinutes,
			BreathworkMinutes:    p.Stats.BreathworkMinutes,
			SoundHealingMinutes:  p.Stats.SoundHealingMinutes,
			GuidedSessionMinutes: p.Stats.GuidedSessionMinutes,
			CurrentStreak:        p.Stats.CurrentStreak,
			LongestStreak:        p.Stats.LongestStreak,
			SessionsThisWeek:     p.Stats.SessionsThisWeek,
			SessionsThisMonth:    p.Stats.SessionsThisMonth,
			FavoriteTimeOfDay:    p.Stats.FavoriteTimeOfDay,
		},
		Preferences: dto.PreferencesOutput{
			FavoriteBreathPatterns: append([]string(nil), p.Preferences.FavoriteBreathPatterns...),
			FavoriteSounds:         append([]string(nil), p.Preferences.FavoriteSounds...),
			FavoriteGuidedSessions: append([]string(nil), p.Preferences.FavoriteGuidedSessions...),
			DefaultSessionDuration: p.Preferences.DefaultSessionDuration,
			AutoStartSounds:        p.Preferences.AutoStartSounds,
			Theme:                  p.Preferences.Theme,
			SoundVolume:            p.Preferences.SoundVolume,
			NotificationsEnabled:   p.Preferences.Notifications.Enabled,
			DailyReminder:          p.Preferences.Notifications.DailyReminder,
			StreakProtection:       p.Preferences.Notifications.StreakProtection,
			Extra:                  p.Preferences.Extra,
		},
	}
	if p.Stats.LastSessionDate > 0 {
		out.Stats.LastSessionDate = clock.FromMillis(p.Stats.LastSessionDate)
	}
	return out
}
