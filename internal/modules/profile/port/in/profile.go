package in

import (
	"context"

	"sacredsound/internal/modules/profile/dto"
)

type Usecase interface {
	GetProfile(ctx context.Context) (dto.ProfileOutput, error)
	UpdatePreference(ctx context.Context, input dto.UpdatePreferenceInput) (dto.ProfileOutput, error)
	AddFavorite(ctx context.Context, input dto.FavoriteInput) (dto.ProfileOutput, error)
	RemoveFavorite(ctx context.Context, input dto.FavoriteInput) (dto.ProfileOutput, error)
	Reset(ctx context.Context) (dto.ProfileOutput, error)
	Login(ctx context.Context) (dto.ProfileOutput, error)
}

// Recorder is the stats path used by the session flow.
type Recorder interface {
	RecordSession(ctx context.Context, input dto.SessionInput) (dto.RecordOutput, error)
}

// XPAwarder credits bonus xp without touching session stats.
type XPAwarder interface {
	AwardXP(ctx context.Context, amount int, reason string) (dto.ProfileOutput, error)
}
