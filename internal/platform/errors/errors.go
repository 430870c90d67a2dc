package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrNotLoggedIn         = errors.New("not logged in")
	ErrAchievementNotFound = errors.New("achievement not found")
)

// NetworkError reports a transport failure talking to the backend (DNS,
// timeout, refused connection).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError reports a non-2xx backend response.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return fmt.Sprintf("remote error (%d)", e.Status)
	}
	return fmt.Sprintf("remote error (%d): %s", e.Status, e.Message)
}

// IsNetwork reports whether err carries a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsRemote reports whether err is recoverable through the sync queue.
func IsRemote(err error) bool {
	if err == nil {
		return false
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return true
	}
	return IsNetwork(err) || errors.Is(err, ErrNotLoggedIn)
}

// Storage wraps a persistence engine failure so callers can match
// ErrStorageUnavailable while keeping the cause.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
