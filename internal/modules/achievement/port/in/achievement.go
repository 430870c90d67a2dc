package in

import (
	"context"

	"sacredsound/internal/modules/achievement/dto"
)

// Checker evaluates every locked rule against the current history.
type Checker interface {
	Check(ctx context.Context) (dto.CheckOutput, error)
}

type Usecase interface {
	Checker
	List(ctx context.Context) (dto.ListOutput, error)
	Unlock(ctx context.Context, achievementID string) (dto.UnlockOutput, error)
}
