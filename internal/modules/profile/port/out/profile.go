package out

import (
	"context"
	"time"

	"sacredsound/internal/modules/profile/domain"
)

type ProfileStore interface {
	Load(ctx context.Context) (domain.Profile, bool, error)
	Save(ctx context.Context, profile domain.Profile) error
}

// SessionLog answers questions about the locally recorded sessions.
type SessionLog interface {
	Dates(ctx context.Context) ([]time.Time, error)
}

// Identity establishes the canonical user id with the backend.
type Identity interface {
	Login(ctx context.Context, userID string) (string, error)
}
