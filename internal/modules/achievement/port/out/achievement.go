package out

import (
	"context"

	"sacredsound/internal/modules/achievement/domain"
)

type History interface {
	Sessions(ctx context.Context) ([]domain.SessionFact, error)
}

type UnlockStore interface {
	List(ctx context.Context) ([]domain.Unlock, error)
	Save(ctx context.Context, unlock domain.Unlock) error
}

// ProfileGateway reads progress figures and credits bonus xp.
type ProfileGateway interface {
	Snapshot(ctx context.Context) (domain.ProfileSnapshot, error)
	AwardXP(ctx context.Context, amount int, reason string) (domain.ProfileSnapshot, error)
}
