package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sacredsound/internal/modules/sync/domain"
	syncout "sacredsound/internal/modules/sync/port/out"
	"sacredsound/internal/platform/backend"
	apperrors "sacredsound/internal/platform/errors"
)

const sessionPageSize = 100

// BackendAPI is the subset of the backend client the mirror needs.
type BackendAPI interface {
	UserID() string
	GetProfile(ctx context.Context) (json.RawMessage, error)
	UpdateProfile(ctx context.Context, profile json.RawMessage) (json.RawMessage, error)
	GetSessions(ctx context.Context, limit, offset int) ([]json.RawMessage, error)
	CreateSession(ctx context.Context, session json.RawMessage) (json.RawMessage, error)
	DeleteSession(ctx context.Context, sessionID string) error
	GetAchievements(ctx context.Context) (backend.AchievementList, error)
	UnlockAchievement(ctx context.Context, achievementID string) (backend.UnlockResult, error)
	HealthCheck(ctx context.Context) bool
}

// BackendMirror maps local collections onto backend endpoints. Custom
// sessions have no backend counterpart and stay on the device.
type BackendMirror struct {
	api BackendAPI
}

var _ syncout.Remote = (*BackendMirror)(nil)

func NewBackendMirror(api BackendAPI) *BackendMirror {
	return &BackendMirror{api: api}
}

func (m *BackendMirror) Supports(collection domain.Collection) bool {
	switch collection {
	case domain.CollectionUserProfile, domain.CollectionSessions, domain.CollectionAchievements:
		return true
	default:
		return false
	}
}

func (m *BackendMirror) HealthCheck(ctx context.Context) bool {
	return m.api.HealthCheck(ctx)
}

func (m *BackendMirror) Fetch(ctx context.Context, collection domain.Collection, key string) (json.RawMessage, bool, error) {
	switch collection {
	case domain.CollectionUserProfile:
		profile, err := m.api.GetProfile(ctx)
		if isNotFound(err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		out, err := withID(profile, key)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	case domain.CollectionSessions, domain.CollectionAchievements:
		all, err := m.FetchAll(ctx, collection)
		if err != nil {
			return nil, false, err
		}
		for _, record := range all {
			if id, err := domain.RecordKey(record); err == nil && id == key {
				return record, true, nil
			}
		}
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: collection %s is not mirrored", apperrors.ErrInvalidInput, collection)
	}
}

func (m *BackendMirror) FetchAll(ctx context.Context, collection domain.Collection) ([]json.RawMessage, error) {
	switch collection {
	case domain.CollectionUserProfile:
		profile, ok, err := m.Fetch(ctx, collection, domain.PrimaryProfileKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []json.RawMessage{}, nil
		}
		return []json.RawMessage{profile}, nil
	case domain.CollectionSessions:
		out := []json.RawMessage{}
		for offset := 0; ; offset += sessionPageSize {
			page, err := m.api.GetSessions(ctx, sessionPageSize, offset)
			if err != nil {
				return nil, err
			}
			out = append(out, page...)
			if len(page) < sessionPageSize {
				return out, nil
			}
		}
	case domain.CollectionAchievements:
		list, err := m.api.GetAchievements(ctx)
		if err != nil {
			return nil, err
		}
		out := []json.RawMessage{}
		for _, status := range list.Achievements {
			if !status.Unlocked || status.ID == "" {
				continue
			}
			record, err := json.Marshal(map[string]any{
				"id":         status.ID,
				"userId":     m.api.UserID(),
				"unlockedAt": unlockedAtMillis(status.UnlockedAt),
			})
			if err != nil {
				return nil, fmt.Errorf("encode achievement %s: %w", status.ID, err)
			}
			out = append(out, record)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: collection %s is not mirrored", apperrors.ErrInvalidInput, collection)
	}
}

func (m *BackendMirror) Apply(ctx context.Context, collection domain.Collection, action domain.Action, key string, payload json.RawMessage) error {
	switch collection {
	case domain.CollectionUserProfile:
		if action != domain.ActionSet {
			return nil
		}
		_, err := m.api.UpdateProfile(ctx, payload)
		return err
	case domain.CollectionSessions:
		if action == domain.ActionDelete {
			err := m.api.DeleteSession(ctx, key)
			if isNotFound(err) {
				return nil
			}
			return err
		}
		_, err := m.api.CreateSession(ctx, payload)
		return err
	case domain.CollectionAchievements:
		if action != domain.ActionSet {
			return nil
		}
		_, err := m.api.UnlockAchievement(ctx, key)
		return err
	default:
		return fmt.Errorf("%w: collection %s is not mirrored", apperrors.ErrInvalidInput, collection)
	}
}

func isNotFound(err error) bool {
	var remote *apperrors.RemoteError
	return errors.As(err, &remote) && remote.Status == http.StatusNotFound
}

func withID(record json.RawMessage, key string) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(record, &fields); err != nil {
		return nil, &apperrors.RemoteError{Status: http.StatusOK, Message: fmt.Sprintf("decode record: %v", err)}
	}
	encodedKey, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	fields["id"] = encodedKey
	return json.Marshal(fields)
}

func unlockedAtMillis(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UnixMilli()
		}
	}
	return 0
}
