package out

import (
	"context"

	"sacredsound/internal/modules/backup/domain"
)

// Archive keeps backup documents outside the device. Get reports a missing
// name as apperrors.ErrNotFound.
type Archive interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]domain.ArchiveObject, error)
}
