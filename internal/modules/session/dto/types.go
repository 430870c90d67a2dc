package dto

import "time"

type SaveInput struct {
	Date          time.Time
	Type          string
	Pattern       string
	GuidedSession string
	Name          string
	Duration      int
	MoodBefore    *int
	MoodAfter     *int
	Sounds        []string
	Completed     bool
	Notes         string
}

type SessionOutput struct {
	ID            string
	Date          time.Time
	Type          string
	Pattern       string
	GuidedSession string
	Name          string
	Duration      int
	MoodBefore    *int
	MoodAfter     *int
	Sounds        []string
	Completed     bool
	Notes         string
}

type SaveOutput struct {
	Session      SessionOutput
	XPGained     int
	Level        int
	LevelUp      bool
	Duplicate    bool
	Achievements []string
}

type RangeInput struct {
	From time.Time
	To   time.Time
}

type CustomSessionInput struct {
	Name        string
	Type        string
	Pattern     string
	Duration    int
	Sounds      []string
	Description string
}

type CustomSessionOutput struct {
	ID          string
	Name        string
	Type        string
	Pattern     string
	Duration    int
	Sounds      []string
	Description string
	Created     time.Time
}
