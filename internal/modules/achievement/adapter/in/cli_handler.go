package in

import (
	"context"

	achievementdto "sacredsound/internal/modules/achievement/dto"
	achievementin "sacredsound/internal/modules/achievement/port/in"
)

type CLIHandler struct {
	usecase achievementin.Usecase
}

func NewCLIHandler(usecase achievementin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Check(ctx context.Context) (achievementdto.CheckOutput, error) {
	return h.usecase.Check(ctx)
}

func (h CLIHandler) List(ctx context.Context) (achievementdto.ListOutput, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Unlock(ctx context.Context, achievementID string) (achievementdto.UnlockOutput, error) {
	return h.usecase.Unlock(ctx, achievementID)
}
