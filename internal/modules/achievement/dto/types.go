package dto

import "time"

type UnlockOutput struct {
	ID         string
	Name       string
	XPBonus    int
	UnlockedAt time.Time
}

// CheckOutput lists the rules unlocked by one evaluation. Level is the
// profile level after bonus xp, or zero when nothing was awarded.
type CheckOutput struct {
	Checked   int
	Unlocked  []UnlockOutput
	XPAwarded int
	Level     int
}

type StatusOutput struct {
	ID          string
	Name        string
	Description string
	XPBonus     int
	Unlocked    bool
	UnlockedAt  time.Time
	Progress    int
	Target      int
}

type ListOutput struct {
	Total        int
	Unlocked     int
	Achievements []StatusOutput
}
