package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "sacredsound/internal/platform/errors"
)

type Kind string

const (
	KindSessions    Kind = "sessions"
	KindStreak      Kind = "streak"
	KindTime        Kind = "time"
	KindBreathwork  Kind = "breathwork"
	KindSound       Kind = "sound"
	KindMood        Kind = "mood"
	KindVariety     Kind = "variety"
	KindConsistency Kind = "consistency"
)

const (
	earlyBirdHour      = 7
	nightOwlHour       = 22
	wimHofPattern      = "wim-hof"
	chakraPrefix       = "chakra_"
	chakraCount        = 7
	moodJump           = 5
	moodSessions       = 10
	consistencyWindow  = 28 * 24 * time.Hour
	consistentSessions = 20
)

var practiceTypes = []string{"breathwork", "sound", "guided"}

// Definition is one static unlock rule.
type Definition struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	Threshold   int
	XPBonus     int
}

// Catalog returns the rules in display order.
func Catalog() []Definition {
	return []Definition{
		{ID: "first_session", Name: "First Steps", Description: "Complete your first practice session", Kind: KindSessions, Threshold: 1, XPBonus: 10},
		{ID: "early_bird", Name: "Early Bird", Description: "Practice before 7 AM", Kind: KindTime, XPBonus: 25},
		{ID: "night_owl", Name: "Night Owl", Description: "Practice after 10 PM", Kind: KindTime, XPBonus: 25},
		{ID: "10_sessions", Name: "Dedicated Beginner", Description: "Complete 10 practice sessions", Kind: KindSessions, Threshold: 10, XPBonus: 50},
		{ID: "50_sessions", Name: "Practitioner", Description: "Complete 50 practice sessions", Kind: KindSessions, Threshold: 50, XPBonus: 150},
		{ID: "week_streak", Name: "Week Warrior", Description: "Maintain a 7-day practice streak", Kind: KindStreak, Threshold: 7, XPBonus: 100},
		{ID: "month_streak", Name: "Dedicated", Description: "Maintain a 30-day practice streak", Kind: KindStreak, Threshold: 30, XPBonus: 300},
		{ID: "100_sessions", Name: "Master", Description: "Complete 100 practice sessions", Kind: KindSessions, Threshold: 100, XPBonus: 250},
		{ID: "500_sessions", Name: "Guru", Description: "Complete 500 practice sessions", Kind: KindSessions, Threshold: 500, XPBonus: 1000},
		{ID: "year_streak", Name: "Enlightened", Description: "Maintain a 365-day practice streak", Kind: KindStreak, Threshold: 365, XPBonus: 1000},
		{ID: "wim_hof_complete", Name: "Ice Man", Description: "Complete full Wim Hof Method session", Kind: KindBreathwork, XPBonus: 75},
		{ID: "chakra_master", Name: "Chakra Master", Description: "Use all 7 chakra frequencies", Kind: KindSound, XPBonus: 100},
		{ID: "mood_improver", Name: "Mood Improver", Description: "Improve mood by 5+ points in 10 sessions", Kind: KindMood, XPBonus: 150},
		{ID: "variety_seeker", Name: "Variety Seeker", Description: "Try all three practice types", Kind: KindVariety, XPBonus: 50},
		{ID: "consistent", Name: "Consistent", Description: "Practice 5 days a week for a month", Kind: KindConsistency, XPBonus: 200},
	}
}

func Lookup(id string) (Definition, error) {
	id = strings.TrimSpace(id)
	for _, def := range Catalog() {
		if def.ID == id {
			return def, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", apperrors.ErrAchievementNotFound, id)
}

// SessionFact is the slice of a session the rules look at. Optional fields
// may be empty.
type SessionFact struct {
	Date       time.Time
	Type       string
	Pattern    string
	Sounds     []string
	MoodBefore *int
	MoodAfter  *int
}

// Facts is everything a rule may consult.
type Facts struct {
	Sessions      []SessionFact
	TotalSessions int
	CurrentStreak int
	Now           time.Time
	Location      *time.Location
}

func (f Facts) hour(t time.Time) int {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Hour()
}

// Progress reports how far the facts are towards the rule. A rule is
// satisfied when progress reaches target.
func (d Definition) Progress(f Facts) (progress, target int) {
	switch d.Kind {
	case KindSessions:
		return f.TotalSessions, d.Threshold
	case KindStreak:
		return f.CurrentStreak, d.Threshold
	case KindTime:
		for _, s := range f.Sessions {
			h := f.hour(s.Date)
			if (d.ID == "early_bird" && h < earlyBirdHour) || (d.ID == "night_owl" && h >= nightOwlHour) {
				return 1, 1
			}
		}
		return 0, 1
	case KindBreathwork:
		for _, s := range f.Sessions {
			if s.Type == "breathwork" && s.Pattern == wimHofPattern {
				return 1, 1
			}
		}
		return 0, 1
	case KindSound:
		chakras := map[string]struct{}{}
		for _, s := range f.Sessions {
			for _, sound := range s.Sounds {
				if strings.HasPrefix(sound, chakraPrefix) {
					chakras[sound] = struct{}{}
				}
			}
		}
		return min(len(chakras), chakraCount), chakraCount
	case KindMood:
		improved := 0
		for _, s := range f.Sessions {
			if s.MoodBefore != nil && s.MoodAfter != nil && *s.MoodAfter-*s.MoodBefore >= moodJump {
				improved++
			}
		}
		return min(improved, moodSessions), moodSessions
	case KindVariety:
		seen := map[string]bool{}
		for _, s := range f.Sessions {
			seen[s.Type] = true
		}
		count := 0
		for _, t := range practiceTypes {
			if seen[t] {
				count++
			}
		}
		return count, len(practiceTypes)
	case KindConsistency:
		recent := 0
		for _, s := range f.Sessions {
			age := f.Now.Sub(s.Date)
			if age >= 0 && age <= consistencyWindow {
				recent++
			}
		}
		return min(recent, consistentSessions), consistentSessions
	default:
		return 0, 1
	}
}

func (d Definition) Satisfied(f Facts) bool {
	progress, target := d.Progress(f)
	return target > 0 && progress >= target
}

// Unlock records that a rule was met. There is at most one per id and it
// is never revoked.
type Unlock struct {
	ID         string `json:"id"`
	UserID     string `json:"userId,omitempty"`
	UnlockedAt int64  `json:"unlockedAt"`
	XPBonus    int    `json:"xpBonus"`
}

// ProfileSnapshot carries the profile figures the rules need.
type ProfileSnapshot struct {
	UserID        string
	TotalSessions int
	CurrentStreak int
	Level         int
}
