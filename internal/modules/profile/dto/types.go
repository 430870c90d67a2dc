package dto

import (
	"encoding/json"
	"time"
)

type SessionInput struct {
	SessionID string
	Date      time.Time
	Type      string
	Duration  int
	Completed bool
}

type StatsOutput struct {
	TotalSessions        int
	TotalMinutes         int
	BreathworkMinutes    int
	SoundHealingMinutes  int
	GuidedSessionMinutes int
	CurrentStreak        int
	LongestStreak        int
	LastSessionDate      time.Time
	SessionsThisWeek     int
	SessionsThisMonth    int
	FavoriteTimeOfDay    string
}

type PreferencesOutput struct {
	FavoriteBreathPatterns []string
	FavoriteSounds         []string
	FavoriteGuidedSessions []string
	DefaultSessionDuration int
	AutoStartSounds        bool
	Theme                  string
	SoundVolume            float64
	NotificationsEnabled   bool
	DailyReminder          string
	StreakProtection       bool
	Extra                  map[string]any
}

type ProfileOutput struct {
	ID          string
	UserID      string
	Created     time.Time
	LastAccess  time.Time
	XP          int
	Level       int
	LevelName   string
	NextLevelXP int
	MaxLevel    bool
	Stats       StatsOutput
	Preferences PreferencesOutput
}

type RecordOutput struct {
	Profile   ProfileOutput
	XPGained  int
	LevelUp   bool
	Duplicate bool
}

type UpdatePreferenceInput struct {
	Key   string
	Value json.RawMessage
}

type FavoriteInput struct {
	Kind string
	Item string
}
