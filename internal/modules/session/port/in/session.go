package in

import (
	"context"
	"time"

	"sacredsound/internal/modules/session/dto"
)

type Usecase interface {
	SaveSession(ctx context.Context, input dto.SaveInput) (dto.SaveOutput, error)
	GetAllSessions(ctx context.Context) ([]dto.SessionOutput, error)
	GetSessionsInRange(ctx context.Context, input dto.RangeInput) ([]dto.SessionOutput, error)
	GetSessionsForDate(ctx context.Context, day time.Time) ([]dto.SessionOutput, error)
	DeleteSession(ctx context.Context, sessionID string) error

	SaveCustomSession(ctx context.Context, input dto.CustomSessionInput) (dto.CustomSessionOutput, error)
	ListCustomSessions(ctx context.Context) ([]dto.CustomSessionOutput, error)
	DeleteCustomSession(ctx context.Context, id string) error
}
