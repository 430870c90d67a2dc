package out

import (
	"context"

	"sacredsound/internal/modules/achievement/domain"
	achievementout "sacredsound/internal/modules/achievement/port/out"
	profiledto "sacredsound/internal/modules/profile/dto"
	profilein "sacredsound/internal/modules/profile/port/in"
)

// ProfileBridge exposes the profile module to the evaluator.
type ProfileBridge struct {
	profiles profilein.Usecase
	awarder  profilein.XPAwarder
}

var _ achievementout.ProfileGateway = (*ProfileBridge)(nil)

func NewProfileBridge(profiles profilein.Usecase, awarder profilein.XPAwarder) *ProfileBridge {
	return &ProfileBridge{profiles: profiles, awarder: awarder}
}

func (b *ProfileBridge) Snapshot(ctx context.Context) (domain.ProfileSnapshot, error) {
	profile, err := b.profiles.GetProfile(ctx)
	if err != nil {
		return domain.ProfileSnapshot{}, err
	}
	return snapshot(profile), nil
}

func (b *ProfileBridge) AwardXP(ctx context.Context, amount int, reason string) (domain.ProfileSnapshot, error) {
	profile, err := b.awarder.AwardXP(ctx, amount, reason)
	if err != nil {
		return domain.ProfileSnapshot{}, err
	}
	return snapshot(profile), nil
}

func snapshot(p profiledto.ProfileOutput) domain.ProfileSnapshot {
	return domain.ProfileSnapshot{
		UserID:        p.UserID,
		TotalSessions: p.Stats.TotalSessions,
		CurrentStreak: p.Stats.CurrentStreak,
		Level:         p.Level,
	}
}
