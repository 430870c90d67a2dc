package domain

import (
	"sort"
	"time"

	profiledomain "sacredsound/internal/modules/profile/domain"
	"sacredsound/internal/platform/clock"
)

// Entry is the read model analytics works on.
type Entry struct {
	ID            string
	Date          time.Time
	Type          string
	Pattern       string
	GuidedSession string
	Duration      int
	Sounds        []string
	MoodBefore    *int
	MoodAfter     *int
	Completed     bool
	Notes         string
}

type TypeMood struct {
	Total   int
	Count   int
	Average float64
}

type MoodSummary struct {
	Average float64
	Total   int
	ByType  map[string]TypeMood
}

// MoodStats averages moodAfter - moodBefore over sessions that carry both.
func MoodStats(entries []Entry) MoodSummary {
	out := MoodSummary{ByType: map[string]TypeMood{}}
	sum := 0
	for _, e := range entries {
		if e.MoodBefore == nil || e.MoodAfter == nil {
			continue
		}
		delta := *e.MoodAfter - *e.MoodBefore
		sum += delta
		out.Total++
		tm := out.ByType[e.Type]
		tm.Total += delta
		tm.Count++
		out.ByType[e.Type] = tm
	}
	if out.Total == 0 {
		return out
	}
	out.Average = float64(sum) / float64(out.Total)
	for k, tm := range out.ByType {
		tm.Average = float64(tm.Total) / float64(tm.Count)
		out.ByType[k] = tm
	}
	return out
}

type CalendarDay struct {
	Day          int
	SessionIDs   []string
	TotalMinutes int
	Types        []string
}

// MonthBounds returns the first and last instant of a calendar month in loc.
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0).Add(-time.Millisecond)
}

// Calendar groups the entries of one month by local day of month.
func Calendar(entries []Entry, year int, month time.Month, loc *time.Location) []CalendarDay {
	if loc == nil {
		loc = time.Local
	}
	byDay := map[int]*CalendarDay{}
	types := map[int]map[string]bool{}
	for _, e := range entries {
		local := e.Date.In(loc)
		if local.Year() != year || local.Month() != month {
			continue
		}
		d := local.Day()
		day, ok := byDay[d]
		if !ok {
			day = &CalendarDay{Day: d}
			byDay[d] = day
			types[d] = map[string]bool{}
		}
		day.SessionIDs = append(day.SessionIDs, e.ID)
		day.TotalMinutes += e.Duration
		if !types[d][e.Type] {
			types[d][e.Type] = true
			day.Types = append(day.Types, e.Type)
		}
	}
	out := make([]CalendarDay, 0, len(byDay))
	for _, day := range byDay {
		sort.Strings(day.Types)
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

type TimeSlot struct {
	Name  string
	Label string
	Count int
}

// TimeOfDay counts sessions per bucket, always returning all four buckets.
func TimeOfDay(entries []Entry, loc *time.Location) []TimeSlot {
	if loc == nil {
		loc = time.Local
	}
	slots := []TimeSlot{
		{Name: "morning", Label: "6-12"},
		{Name: "afternoon", Label: "12-18"},
		{Name: "evening", Label: "18-22"},
		{Name: "night", Label: "22-6"},
	}
	index := map[string]int{}
	for i, s := range slots {
		index[s.Name] = i
	}
	for _, e := range entries {
		slots[index[profiledomain.TimeOfDay(e.Date.In(loc).Hour())]].Count++
	}
	return slots
}

type Usage struct {
	Name  string
	Count int
}

type MostUsedSummary struct {
	Patterns       []Usage
	Sounds         []Usage
	GuidedSessions []Usage
}

func MostUsed(entries []Entry) MostUsedSummary {
	patterns := map[string]int{}
	sounds := map[string]int{}
	guided := map[string]int{}
	for _, e := range entries {
		if e.Pattern != "" {
			patterns[e.Pattern]++
		}
		for _, s := range e.Sounds {
			if s != "" {
				sounds[s]++
			}
		}
		if e.GuidedSession != "" {
			guided[e.GuidedSession]++
		}
	}
	return MostUsedSummary{Patterns: ranked(patterns), Sounds: ranked(sounds), GuidedSessions: ranked(guided)}
}

func ranked(counts map[string]int) []Usage {
	out := make([]Usage, 0, len(counts))
	for name, n := range counts {
		out = append(out, Usage{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Name < out[j].Name
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// Streaks recomputes current and longest streak from completed sessions.
// The current streak is zero unless the latest practice day is today or
// yesterday.
func Streaks(entries []Entry, now time.Time, loc *time.Location) (current, longest int) {
	if loc == nil {
		loc = time.Local
	}
	daySet := map[time.Time]bool{}
	for _, e := range entries {
		if !e.Completed {
			continue
		}
		daySet[clock.StartOfDay(e.Date, loc)] = true
	}
	if len(daySet) == 0 {
		return 0, 0
	}
	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if clock.DaysBetween(days[i], days[i-1], loc) == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}

	if gap := clock.DaysBetween(days[0], now, loc); gap > 1 || gap < 0 {
		return 0, longest
	}
	current = 1
	for i := 1; i < len(days); i++ {
		if clock.DaysBetween(days[i], days[i-1], loc) != 1 {
			break
		}
		current++
	}
	return current, longest
}

type Recommendation struct {
	Type    string
	Pattern string
	Session string
	Reason  string
}

// RecommendInput is what recommendations are derived from. Recent holds the
// latest sessions, newest first.
type RecommendInput struct {
	Now               time.Time
	Location          *time.Location
	FavoritePatterns  []string
	Recent            []Entry
	CurrentStreak     int
	PracticedToday    bool
	MaxRecommendation int
}

const recentWindow = 20

func Recommend(in RecommendInput) []Recommendation {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	limit := in.MaxRecommendation
	if limit <= 0 {
		limit = 3
	}
	out := []Recommendation{}
	if in.CurrentStreak > 0 && !in.PracticedToday {
		out = append(out, Recommendation{Type: "breathwork", Pattern: "box", Reason: "Keep your streak alive with a short session"})
	}

	hour := in.Now.In(loc).Hour()
	switch {
	case hour >= 5 && hour < 12:
		out = append(out,
			Recommendation{Type: "guided", Session: "morning", Reason: "Perfect for your morning energizer"},
			Recommendation{Type: "breathwork", Pattern: "energize", Reason: "Wake up with energizing breath"},
		)
	case hour >= 20 || hour < 5:
		out = append(out,
			Recommendation{Type: "guided", Session: "sleep", Reason: "Wind down for better sleep"},
			Recommendation{Type: "breathwork", Pattern: "478", Reason: "Relaxing breath for bedtime"},
		)
	case hour >= 12 && hour < 17:
		out = append(out, Recommendation{Type: "guided", Session: "stress", Reason: "Midday stress relief"})
	}

	if len(in.FavoritePatterns) > 0 {
		out = append(out, Recommendation{Type: "breathwork", Pattern: in.FavoritePatterns[0], Reason: "One of your favorites"})
	}

	recent := in.Recent
	if len(recent) > recentWindow {
		recent = recent[:recentWindow]
	}
	breathwork, sound := 0, 0
	for _, e := range recent {
		switch e.Type {
		case profiledomain.SessionBreathwork:
			breathwork++
		case profiledomain.SessionSound:
			sound++
		}
	}
	if breathwork > sound*2 {
		out = append(out, Recommendation{Type: "sound", Reason: "Try some sound healing for variety"})
	} else if sound > breathwork*2 {
		out = append(out, Recommendation{Type: "breathwork", Pattern: "box", Reason: "Balance with breathwork practice"})
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ProfileFacts are the profile figures recommendations consult.
type ProfileFacts struct {
	FavoritePatterns []string
	CurrentStreak    int
	LongestStreak    int
}
