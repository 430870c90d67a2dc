package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"sacredsound/internal/platform/clock"
	apperrors "sacredsound/internal/platform/errors"
)

// LocalID keys the single profile record on this device.
const LocalID = "primary-user"

// RecentSessionWindow bounds how many recorded session ids are remembered
// for de-duplication.
const RecentSessionWindow = 64

const (
	SessionBreathwork = "breathwork"
	SessionSound      = "sound"
	SessionGuided     = "guided"
)

type Notifications struct {
	Enabled          bool   `json:"enabled"`
	DailyReminder    string `json:"dailyReminder"`
	StreakProtection bool   `json:"streakProtection"`
}

type Preferences struct {
	FavoriteBreathPatterns []string       `json:"favoriteBreathPatterns"`
	FavoriteSounds         []string       `json:"favoriteSounds"`
	FavoriteGuidedSessions []string       `json:"favoriteGuidedSessions"`
	DefaultSessionDuration int            `json:"defaultSessionDuration"`
	AutoStartSounds        bool           `json:"autoStartSounds"`
	Theme                  string         `json:"theme"`
	SoundVolume            float64        `json:"soundVolume"`
	Notifications          Notifications  `json:"notifications"`
	Extra                  map[string]any `json:"extra,omitempty"`
}

type Stats struct {
	TotalSessions        int    `json:"totalSessions"`
	TotalMinutes         int    `json:"totalMinutes"`
	BreathworkMinutes    int    `json:"breathworkMinutes"`
	SoundHealingMinutes  int    `json:"soundHealingMinutes"`
	GuidedSessionMinutes int    `json:"guidedSessionMinutes"`
	CurrentStreak        int    `json:"currentStreak"`
	LongestStreak        int    `json:"longestStreak"`
	LastSessionDate      int64  `json:"lastSessionDate"`
	SessionsThisWeek     int    `json:"sessionsThisWeek"`
	SessionsThisMonth    int    `json:"sessionsThisMonth"`
	FavoriteTimeOfDay    string `json:"favoriteTimeOfDay,omitempty"`
}

type Profile struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId,omitempty"`
	Created          int64       `json:"created"`
	LastAccess       int64       `json:"lastAccess"`
	Preferences      Preferences `json:"preferences"`
	Stats            Stats       `json:"stats"`
	XP               int         `json:"xp"`
	Level            int         `json:"level"`
	RecentSessionIDs []string    `json:"recentSessionIds,omitempty"`
}

func NewDefault(now time.Time) Profile {
	return Profile{
		ID:         LocalID,
		Created:    now.UnixMilli(),
		LastAccess: now.UnixMilli(),
		Preferences: Preferences{
			FavoriteBreathPatterns: []string{},
			FavoriteSounds:         []string{},
			FavoriteGuidedSessions: []string{},
			DefaultSessionDuration: 10,
			Theme:                  "light",
			SoundVolume:            0.5,
			Notifications: Notifications{
				DailyReminder:    "07:00",
				StreakProtection: true,
			},
		},
		Level: 1,
	}
}

// Normalize repairs records written by older clients or other devices.
func (p *Profile) Normalize() {
	if p.ID == "" {
		p.ID = LocalID
	}
	if p.Preferences.FavoriteBreathPatterns == nil {
		p.Preferences.FavoriteBreathPatterns = []string{}
	}
	if p.Preferences.FavoriteSounds == nil {
		p.Preferences.FavoriteSounds = []string{}
	}
	if p.Preferences.FavoriteGuidedSessions == nil {
		p.Preferences.FavoriteGuidedSessions = []string{}
	}
	if p.XP < 0 {
		p.XP = 0
	}
	if p.Stats.LongestStreak < p.Stats.CurrentStreak {
		p.Stats.LongestStreak = p.Stats.CurrentStreak
	}
	p.Level = LevelFor(p.XP)
}

// ---- levels ----

var levelThresholds = []int{0, 100, 300, 700, 1500, 3000, 10000}

var levelNames = []string{"Beginner", "Initiate", "Practitioner", "Adept", "Master", "Guru", "Enlightened"}

// LevelFor is the highest level whose threshold is at most xp.
func LevelFor(xp int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if xp >= threshold {
			level = i + 1
		}
	}
	return level
}

func LevelName(level int) string {
	if level < 1 || level > len(levelNames) {
		return ""
	}
	return levelNames[level-1]
}

// NextLevelXP returns the xp needed for the level after level, or false at
// the top of the table.
func NextLevelXP(level int) (int, bool) {
	if level < 1 || level >= len(levelThresholds) {
		return 0, false
	}
	return levelThresholds[level], true
}

type LevelChange struct {
	From int
	To   int
}

func (c LevelChange) Up() bool { return c.To > c.From }

// ---- xp ----

const (
	referenceMinutes = 10.0
	maxMultiplier    = 5.0
)

func baseXP(sessionType string) int {
	switch sessionType {
	case SessionBreathwork:
		return 10
	case SessionSound:
		return 8
	case SessionGuided:
		return 15
	default:
		return 0
	}
}

// SessionXP is floor(base(type) * min(duration/10, 5)).
func SessionXP(sessionType string, durationMinutes int) int {
	if durationMinutes <= 0 {
		return 0
	}
	multiplier := math.Min(float64(durationMinutes)/referenceMinutes, maxMultiplier)
	return int(math.Floor(float64(baseXP(sessionType)) * multiplier))
}

func (p *Profile) AddXP(amount int) (LevelChange, error) {
	if amount < 0 {
		return LevelChange{}, fmt.Errorf("%w: xp amount must be non-negative", apperrors.ErrInvalidInput)
	}
	change := LevelChange{From: p.Level}
	p.XP += amount
	p.Level = LevelFor(p.XP)
	change.To = p.Level
	return change, nil
}

// ---- sessions ----

// SessionFacts is what the stats engine needs to know about a saved session.
type SessionFacts struct {
	ID        string
	Date      time.Time
	Type      string
	Duration  int
	Completed bool
}

// Seen reports whether a session id is inside the de-duplication window.
func (p Profile) Seen(sessionID string) bool {
	for _, id := range p.RecentSessionIDs {
		if id == sessionID {
			return true
		}
	}
	return false
}

// ApplySession folds one session into totals, streak and xp. Incomplete
// sessions count toward totals and xp but leave the streak alone.
func (p *Profile) ApplySession(facts SessionFacts, loc *time.Location) LevelChange {
	p.Stats.TotalSessions++
	p.Stats.TotalMinutes += facts.Duration
	switch facts.Type {
	case SessionBreathwork:
		p.Stats.BreathworkMinutes += facts.Duration
	case SessionSound:
		p.Stats.SoundHealingMinutes += facts.Duration
	case SessionGuided:
		p.Stats.GuidedSessionMinutes += facts.Duration
	}

	if facts.Completed {
		p.Stats = AdvanceStreak(p.Stats, facts.Date, loc)
	}

	if facts.ID != "" {
		p.RecentSessionIDs = append(p.RecentSessionIDs, facts.ID)
		if n := len(p.RecentSessionIDs); n > RecentSessionWindow {
			p.RecentSessionIDs = append([]string(nil), p.RecentSessionIDs[n-RecentSessionWindow:]...)
		}
	}

	// SessionXP is never negative.
	change, _ := p.AddXP(SessionXP(facts.Type, facts.Duration))
	return change
}

// AdvanceStreak applies a session on day to the streak counters. Days are
// calendar days in loc. A session older than the last counted one changes
// nothing.
func AdvanceStreak(stats Stats, day time.Time, loc *time.Location) Stats {
	if stats.LastSessionDate == 0 {
		stats.CurrentStreak = 1
	} else {
		switch gap := clock.DaysBetween(clock.FromMillis(stats.LastSessionDate), day, loc); {
		case gap < 0:
			return stats
		case gap == 0:
			if stats.CurrentStreak == 0 {
				stats.CurrentStreak = 1
			}
		case gap == 1:
			stats.CurrentStreak++
		default:
			stats.CurrentStreak = 1
		}
	}
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	if day.UnixMilli() > stats.LastSessionDate {
		stats.LastSessionDate = day.UnixMilli()
	}
	return stats
}

// ---- time of day ----

const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

// TimeOfDay buckets an hour: morning 6-12, afternoon 12-18, evening 18-22,
// night otherwise.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Afternoon
	case hour >= 18 && hour < 22:
		return Evening
	default:
		return Night
	}
}

// FavoriteTimeOfDay returns the bucket holding the most sessions. Ties go to
// the earlier bucket in the day.
func FavoriteTimeOfDay(dates []time.Time, loc *time.Location) string {
	if len(dates) == 0 {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	counts := map[string]int{}
	for _, date := range dates {
		counts[TimeOfDay(date.In(loc).Hour())]++
	}
	best := ""
	for _, bucket := range []string{Morning, Afternoon, Evening, Night} {
		if best == "" || counts[bucket] > counts[best] {
			best = bucket
		}
	}
	return best
}

// ---- preferences ----

type FavoriteKind string

const (
	FavoriteBreathPatterns FavoriteKind = "breathPatterns"
	FavoriteSounds         FavoriteKind = "sounds"
	FavoriteGuidedSessions FavoriteKind = "guidedSessions"
)

func ParseFavoriteKind(raw string) (FavoriteKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "breathpatterns", "breath", "patterns":
		return FavoriteBreathPatterns, nil
	case "sounds", "sound":
		return FavoriteSounds, nil
	case "guidedsessions", "guided":
		return FavoriteGuidedSessions, nil
	default:
		return "", fmt.Errorf("%w: unknown favorite kind %q", apperrors.ErrInvalidInput, raw)
	}
}

func (p *Profile) favorites(kind FavoriteKind) *[]string {
	switch kind {
	case FavoriteBreathPatterns:
		return &p.Preferences.FavoriteBreathPatterns
	case FavoriteSounds:
		return &p.Preferences.FavoriteSounds
	default:
		return &p.Preferences.FavoriteGuidedSessions
	}
}

// AddFavorite reports whether the list changed.
func (p *Profile) AddFavorite(kind FavoriteKind, item string) bool {
	list := p.favorites(kind)
	for _, existing := range *list {
		if existing == item {
			return false
		}
	}
	*list = append(*list, item)
	return true
}

func (p *Profile) RemoveFavorite(kind FavoriteKind, item string) bool {
	list := p.favorites(kind)
	for i, existing := range *list {
		if existing == item {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// SetPreference decodes value into the named preference. Unknown keys are
// kept in Extra.
func (p *Profile) SetPreference(key string, value json.RawMessage) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: preference key is required", apperrors.ErrInvalidInput)
	}
	var target any
	prefs := &p.Preferences
	switch key {
	case "favoriteBreathPatterns":
		target = &prefs.FavoriteBreathPatterns
	case "favoriteSounds":
		target = &prefs.FavoriteSounds
	case "favoriteGuidedSessions":
		target = &prefs.FavoriteGuidedSessions
	case "defaultSessionDuration":
		target = &prefs.DefaultSessionDuration
	case "autoStartSounds":
		target = &prefs.AutoStartSounds
	case "theme":
		target = &prefs.Theme
	case "soundVolume":
		target = &prefs.SoundVolume
	case "notifications":
		target = &prefs.Notifications
	default:
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			return fmt.Errorf("%w: preference %s: %v", apperrors.ErrInvalidInput, key, err)
		}
		if prefs.Extra == nil {
			prefs.Extra = map[string]any{}
		}
		prefs.Extra[key] = decoded
		return nil
	}
	if err := json.Unmarshal(value, target); err != nil {
		return fmt.Errorf("%w: preference %s: %v", apperrors.ErrInvalidInput, key, err)
	}
	if prefs.SoundVolume < 0 || prefs.SoundVolume > 1 {
		return fmt.Errorf("%w: soundVolume must be within 0..1", apperrors.ErrInvalidInput)
	}
	if prefs.DefaultSessionDuration < 0 {
		return fmt.Errorf("%w: defaultSessionDuration must be non-negative", apperrors.ErrInvalidInput)
	}
	return nil
}
