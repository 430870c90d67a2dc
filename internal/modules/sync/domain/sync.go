package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "sacredsound/internal/platform/errors"
)

type Collection string

const (
	CollectionUserProfile    Collection = "userProfile"
	CollectionSessions       Collection = "sessions"
	CollectionCustomSessions Collection = "customSessions"
	CollectionAchievements   Collection = "achievements"
)

// DataCollections lists the record collections; the sync queue is kept apart.
var DataCollections = []Collection{
	CollectionUserProfile,
	CollectionSessions,
	CollectionCustomSessions,
	CollectionAchievements,
}

func ParseCollection(raw string) (Collection, error) {
	for _, c := range DataCollections {
		if string(c) == strings.TrimSpace(raw) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown collection %q", apperrors.ErrInvalidInput, raw)
}

func (c Collection) Valid() bool {
	_, err := ParseCollection(string(c))
	return err == nil
}

type Action string

const (
	ActionSet    Action = "set"
	ActionDelete Action = "delete"
)

// QueueEntry is a durable record of a mutation the backend has not yet
// acknowledged.
type QueueEntry struct {
	Seq        int64           `json:"seq"`
	Collection Collection      `json:"collection"`
	Action     Action          `json:"action"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  int64           `json:"timestamp"`
	RetryCount int             `json:"retryCount"`
	LastError  string          `json:"lastError,omitempty"`
	Parked     bool            `json:"parked"`
}

type Index string

const (
	IndexDate Index = "date"
	IndexType Index = "type"
	IndexName Index = "name"
)

// IndexQuery selects records by a secondary index. Equality indexes use
// Equals; the date index uses the inclusive range From..To in epoch millis.
type IndexQuery struct {
	Equals string
	From   int64
	To     int64
}

func Equal(value string) IndexQuery { return IndexQuery{Equals: value} }

func Between(from, to int64) IndexQuery { return IndexQuery{From: from, To: to} }

// RecordKey returns the primary key of a record, read from its "id" field.
// Numeric ids are rendered in decimal.
func RecordKey(record json.RawMessage) (string, error) {
	probe := struct {
		ID json.RawMessage `json:"id"`
	}{}
	if err := json.Unmarshal(record, &probe); err != nil {
		return "", fmt.Errorf("%w: record is not a JSON object: %v", apperrors.ErrInvalidInput, err)
	}
	raw := strings.TrimSpace(string(probe.ID))
	if raw == "" || raw == "null" {
		return "", fmt.Errorf("%w: record has no id", apperrors.ErrInvalidInput)
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(probe.ID, &s); err != nil {
			return "", fmt.Errorf("%w: decode record id: %v", apperrors.ErrInvalidInput, err)
		}
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: record has no id", apperrors.ErrInvalidInput)
		}
		return s, nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "", fmt.Errorf("%w: record id must be a string or number", apperrors.ErrInvalidInput)
	}
	return raw, nil
}

// PrimaryProfileKey is the local key of the single profile record. The
// backend's canonical user id travels inside the record.
const PrimaryProfileKey = "primary-user"
