package in

import (
	"context"

	syncdto "sacredsound/internal/modules/sync/dto"
	syncin "sacredsound/internal/modules/sync/port/in"
)

type CLIHandler struct {
	usecase syncin.Usecase
}

func NewCLIHandler(usecase syncin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Status(ctx context.Context) syncdto.StatusOutput {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Flush(ctx context.Context) (syncdto.DrainOutput, error) {
	return h.usecase.Flush(ctx)
}

func (h CLIHandler) SetOnline(ctx context.Context, online bool) syncdto.StatusOutput {
	return h.usecase.SetOnline(ctx, online)
}

func (h CLIHandler) RequeueParked(ctx context.Context) (int, error) {
	return h.usecase.RequeueParked(ctx)
}

func (h CLIHandler) Queue(ctx context.Context) []syncdto.QueueEntryOutput {
	return h.usecase.ListQueue(ctx)
}
