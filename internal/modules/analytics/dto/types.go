package dto

type TypeMoodOutput struct {
	Type    string
	Count   int
	Average float64
}

type MoodOutput struct {
	Average float64
	Total   int
	ByType  []TypeMoodOutput
}

type CalendarDayOutput struct {
	Day          int
	Sessions     int
	SessionIDs   []string
	TotalMinutes int
	Types        []string
}

type CalendarOutput struct {
	Year  int
	Month int
	Days  []CalendarDayOutput
}

type TimeSlotOutput struct {
	Name  string
	Label string
	Count int
}

type UsageOutput struct {
	Name  string
	Count int
}

type MostUsedOutput struct {
	Patterns       []UsageOutput
	Sounds         []UsageOutput
	GuidedSessions []UsageOutput
}

type StreakOutput struct {
	CurrentStreak int
	LongestStreak int
}

type RecommendationOutput struct {
	Type    string
	Pattern string
	Session string
	Reason  string
}
