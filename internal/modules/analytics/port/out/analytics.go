package out

import (
	"context"
	"time"

	"sacredsound/internal/modules/analytics/domain"
)

type SessionSource interface {
	Entries(ctx context.Context) ([]domain.Entry, error)
	Range(ctx context.Context, from, to time.Time) ([]domain.Entry, error)
}

type ProfileSource interface {
	Facts(ctx context.Context) (domain.ProfileFacts, error)
}
