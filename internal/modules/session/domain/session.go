package domain

import (
	"fmt"
	"strings"
	"time"

	"sacredsound/internal/platform/clock"
	apperrors "sacredsound/internal/platform/errors"
)

type Type string

const (
	TypeBreathwork Type = "breathwork"
	TypeSound      Type = "sound"
	TypeGuided     Type = "guided"
)

var Types = []Type{TypeBreathwork, TypeSound, TypeGuided}

func ParseType(raw string) (Type, error) {
	for _, t := range Types {
		if string(t) == strings.ToLower(strings.TrimSpace(raw)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown session type %q", apperrors.ErrInvalidInput, raw)
}

const (
	MinMood = 1
	MaxMood = 10
)

// Session is one recorded practice. Duration is in whole minutes and Date
// in epoch milliseconds.
type Session struct {
	ID            string   `json:"id"`
	Date          int64    `json:"date"`
	Type          Type     `json:"type"`
	Pattern       string   `json:"pattern,omitempty"`
	GuidedSession string   `json:"guidedSession,omitempty"`
	Name          string   `json:"name,omitempty"`
	Duration      int      `json:"duration"`
	MoodBefore    *int     `json:"moodBefore,omitempty"`
	MoodAfter     *int     `json:"moodAfter,omitempty"`
	Sounds        []string `json:"sounds,omitempty"`
	Completed     bool     `json:"completed"`
	Notes         string   `json:"notes,omitempty"`
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if _, err := ParseType(string(s.Type)); err != nil {
		return err
	}
	if s.Duration < 0 {
		return fmt.Errorf("%w: duration must be non-negative", apperrors.ErrInvalidInput)
	}
	for name, mood := range map[string]*int{"moodBefore": s.MoodBefore, "moodAfter": s.MoodAfter} {
		if mood != nil && (*mood < MinMood || *mood > MaxMood) {
			return fmt.Errorf("%w: %s must be within %d..%d", apperrors.ErrInvalidInput, name, MinMood, MaxMood)
		}
	}
	return nil
}

func (s Session) Time() time.Time {
	return clock.FromMillis(s.Date)
}

// MoodDelta is moodAfter - moodBefore when both are present.
func (s Session) MoodDelta() (int, bool) {
	if s.MoodBefore == nil || s.MoodAfter == nil {
		return 0, false
	}
	return *s.MoodAfter - *s.MoodBefore, true
}

// CustomSession is a user-defined practice template kept on this device.
type CustomSession struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        Type     `json:"type"`
	Pattern     string   `json:"pattern,omitempty"`
	Duration    int      `json:"duration"`
	Sounds      []string `json:"sounds,omitempty"`
	Description string   `json:"description,omitempty"`
	Created     int64    `json:"created"`
}

func (c CustomSession) Validate() error {
	if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: custom session needs an id and a name", apperrors.ErrInvalidInput)
	}
	if _, err := ParseType(string(c.Type)); err != nil {
		return err
	}
	if c.Duration < 0 {
		return fmt.Errorf("%w: duration must be non-negative", apperrors.ErrInvalidInput)
	}
	return nil
}
