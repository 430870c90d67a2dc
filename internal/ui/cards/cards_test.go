package cards

import (
	"strings"
	"testing"
	"time"

	achievementdto "sacredsound/internal/modules/achievement/dto"
	analyticsdto "sacredsound/internal/modules/analytics/dto"
	profiledto "sacredsound/internal/modules/profile/dto"
)

func TestProgressBar(t *testing.T) {
	t.Parallel()
	cases := []struct {
		current, target, width int
		want                   string
	}{
		{0, 100, 4, "░░░░"},
		{50, 100, 4, "██░░"},
		{150, 100, 4, "████"},
		{-5, 100, 4, "░░░░"},
		{3, 0, 3, "███"},
		{1, 1, 0, ""},
	}
	for _, tc := range cases {
		if got := ProgressBar(tc.current, tc.target, tc.width); got != tc.want {
			t.Fatalf("ProgressBar(%d,%d,%d) = %q, want %q", tc.current, tc.target, tc.width, got, tc.want)
		}
	}
}

func TestProfileCard(t *testing.T) {
	t.Parallel()
	out := Profile(profiledto.ProfileOutput{
		Level:       2,
		LevelName:   "Seeker",
		XP:          150,
		NextLevelXP: 300,
		Stats:       profiledto.StatsOutput{TotalSessions: 4, TotalMinutes: 42, CurrentStreak: 3, LongestStreak: 5},
	})
	for _, want := range []string{"Seeker", "150/300 XP", "not linked", "4 (42 min)", "3 days", "never"} {
		if !strings.Contains(out, want) {
			t.Fatalf("profile card missing %q:\n%s", want, out)
		}
	}

	maxed := Profile(profiledto.ProfileOutput{Level: 10, XP: 99999, MaxLevel: true, UserID: "user-1"})
	if !strings.Contains(maxed, "(max level)") || !strings.Contains(maxed, "user-1") {
		t.Fatalf("max level card:\n%s", maxed)
	}
}

func TestAchievementsCard(t *testing.T) {
	t.Parallel()
	out := Achievements(achievementdto.ListOutput{
		Total:    2,
		Unlocked: 1,
		Achievements: []achievementdto.StatusOutput{
			{Name: "First Breath", XPBonus: 50, Unlocked: true, UnlockedAt: time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)},
			{Name: "Week Warrior", Description: "Maintain a 7-day streak", Progress: 3, Target: 7},
		},
	})
	for _, want := range []string{"Achievements 1/2", "★ First Breath", "+50 XP", "☆ Week Warrior", "3/7", "Maintain a 7-day streak"} {
		if !strings.Contains(out, want) {
			t.Fatalf("achievements card missing %q:\n%s", want, out)
		}
	}
}

func TestCalendarCard(t *testing.T) {
	t.Parallel()
	out := Calendar(analyticsdto.CalendarOutput{
		Year:  2024,
		Month: 2,
		Days:  []analyticsdto.CalendarDayOutput{{Day: 14, TotalMinutes: 45}},
	}, 4, 29)
	if !strings.Contains(out, "2024-02") || !strings.Contains(out, "29") {
		t.Fatalf("calendar card:\n%s", out)
	}
	if strings.Contains(out, "30") {
		t.Fatalf("calendar rendered past month end:\n%s", out)
	}
}
