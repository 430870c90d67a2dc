package out

import (
	"context"

	profileout "sacredsound/internal/modules/profile/port/out"
	syncin "sacredsound/internal/modules/sync/port/in"
	"sacredsound/internal/platform/backend"
)

// BackendIdentity logs in through the gateway. Entries queued before the
// user id was known are flushed once login succeeds.
type BackendIdentity struct {
	client *backend.Client
	sync   syncin.Usecase
}

var _ profileout.Identity = (*BackendIdentity)(nil)

func NewBackendIdentity(client *backend.Client, sync syncin.Usecase) *BackendIdentity {
	return &BackendIdentity{client: client, sync: sync}
}

func (b *BackendIdentity) Login(ctx context.Context, userID string) (string, error) {
	user, err := b.client.Login(ctx, userID)
	if err != nil {
		return "", err
	}
	if b.sync != nil && b.sync.Status(ctx).Pending > 0 {
		// A failed flush leaves the entries for the next drain.
		_, _ = b.sync.Flush(ctx)
	}
	return user.ID, nil
}
