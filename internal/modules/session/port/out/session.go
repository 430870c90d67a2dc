package out

import (
	"context"
	"time"

	"sacredsound/internal/modules/session/domain"
)

type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, bool, error)
	List(ctx context.Context) ([]domain.Session, error)
	// Range returns locally known sessions whose date falls in [from, to].
	Range(ctx context.Context, from, to time.Time) ([]domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type CustomSessionStore interface {
	SaveCustom(ctx context.Context, custom domain.CustomSession) error
	GetCustom(ctx context.Context, id string) (domain.CustomSession, bool, error)
	ListCustom(ctx context.Context) ([]domain.CustomSession, error)
	DeleteCustom(ctx context.Context, id string) error
}
