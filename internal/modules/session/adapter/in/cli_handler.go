package in

import (
	"context"
	"time"

	sessiondto "sacredsound/internal/modules/session/dto"
	sessionin "sacredsound/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Save(ctx context.Context, input sessiondto.SaveInput) (sessiondto.SaveOutput, error) {
	return h.usecase.SaveSession(ctx, input)
}

func (h CLIHandler) List(ctx context.Context) ([]sessiondto.SessionOutput, error) {
	return h.usecase.GetAllSessions(ctx)
}

func (h CLIHandler) Range(ctx context.Context, from, to time.Time) ([]sessiondto.SessionOutput, error) {
	return h.usecase.GetSessionsInRange(ctx, sessiondto.RangeInput{From: from, To: to})
}

func (h CLIHandler) ForDate(ctx context.Context, day time.Time) ([]sessiondto.SessionOutput, error) {
	return h.usecase.GetSessionsForDate(ctx, day)
}

func (h CLIHandler) Delete(ctx context.Context, sessionID string) error {
	return h.usecase.DeleteSession(ctx, sessionID)
}

func (h CLIHandler) SaveCustom(ctx context.Context, input sessiondto.CustomSessionInput) (sessiondto.CustomSessionOutput, error) {
	return h.usecase.SaveCustomSession(ctx, input)
}

func (h CLIHandler) ListCustom(ctx context.Context) ([]sessiondto.CustomSessionOutput, error) {
	return h.usecase.ListCustomSessions(ctx)
}

func (h CLIHandler) DeleteCustom(ctx context.Context, id string) error {
	return h.usecase.DeleteCustomSession(ctx, id)
}
