package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "sacredsound/internal/platform/errors"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func completed(id string, at time.Time) SessionFacts {
	return SessionFacts{ID: id, Date: at, Type: SessionBreathwork, Duration: 10, Completed: true}
}

func TestLevelFor(t *testing.T) {
	t.Parallel()
	cases := map[int]int{0: 1, 99: 1, 100: 2, 299: 2, 300: 3, 700: 4, 1499: 4, 1500: 5, 3000: 6, 9999: 6, 10000: 7, 50000: 7}
	for xp, want := range cases {
		if got := LevelFor(xp); got != want {
			t.Fatalf("LevelFor(%d) = %d, want %d", xp, got, want)
		}
	}
	if LevelName(1) != "Beginner" || LevelName(7) != "Enlightened" || LevelName(8) != "" {
		t.Fatalf("unexpected level names")
	}
	if next, ok := NextLevelXP(1); !ok || next != 100 {
		t.Fatalf("NextLevelXP(1) = %d, %v", next, ok)
	}
	if _, ok := NextLevelXP(7); ok {
		t.Fatalf("top level must have no next threshold")
	}
}

func TestLevelIsMonotonicInXP(t *testing.T) {
	t.Parallel()
	prev := LevelFor(0)
	for xp := 0; xp <= 12000; xp += 7 {
		level := LevelFor(xp)
		if level < prev {
			t.Fatalf("level dropped from %d to %d at xp %d", prev, level, xp)
		}
		if level != LevelFor(xp) {
			t.Fatalf("LevelFor is not deterministic at %d", xp)
		}
		prev = level
	}
}

func TestSessionXP(t *testing.T) {
	t.Parallel()
	cases := []struct {
		kind     string
		duration int
		want     int
	}{
		{SessionBreathwork, 10, 10},
		{SessionSound, 10, 8},
		{SessionGuided, 10, 15},
		{SessionBreathwork, 5, 5},
		{SessionSound, 15, 12},
		{SessionGuided, 120, 75},
		{SessionBreathwork, 0, 0},
		{"unknown", 30, 0},
	}
	for _, tc := range cases {
		if got := SessionXP(tc.kind, tc.duration); got != tc.want {
			t.Fatalf("SessionXP(%s, %d) = %d, want %d", tc.kind, tc.duration, got, tc.want)
		}
	}
}

func TestStreakSameDayDoesNotDoubleCount(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	p.ApplySession(completed("a", day(2024, 1, 1, 8)), time.UTC)
	p.ApplySession(completed("b", day(2024, 1, 1, 20)), time.UTC)
	if p.Stats.CurrentStreak != 1 || p.Stats.TotalSessions != 2 {
		t.Fatalf("unexpected stats: %+v", p.Stats)
	}
}

func TestStreakConsecutiveDaysThenGap(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	for i, d := range []int{1, 2, 3} {
		p.ApplySession(completed(string(rune('a'+i)), day(2024, 1, d, 9)), time.UTC)
	}
	if p.Stats.CurrentStreak != 3 || p.Stats.LongestStreak != 3 {
		t.Fatalf("want streak 3, got %+v", p.Stats)
	}
	p.ApplySession(completed("gap", day(2024, 1, 6, 9)), time.UTC)
	if p.Stats.CurrentStreak != 1 || p.Stats.LongestStreak != 3 {
		t.Fatalf("want reset to 1 keeping longest 3, got %+v", p.Stats)
	}
	if p.Stats.CurrentStreak > p.Stats.LongestStreak {
		t.Fatalf("current streak exceeds longest")
	}
}

func TestStreakUsesCalendarDaysInLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC-5", -5*3600)
	p := NewDefault(day(2024, 1, 1, 0))
	// 23:30 and 00:30 local on consecutive days are one hour apart.
	p.ApplySession(completed("late", time.Date(2024, 1, 1, 23, 30, 0, 0, loc)), loc)
	p.ApplySession(completed("early", time.Date(2024, 1, 2, 0, 30, 0, 0, loc)), loc)
	if p.Stats.CurrentStreak != 2 {
		t.Fatalf("want streak 2 across local midnight, got %d", p.Stats.CurrentStreak)
	}
}

func TestIncompleteSessionSkipsStreak(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	facts := completed("x", day(2024, 1, 1, 9))
	facts.Completed = false
	p.ApplySession(facts, time.UTC)
	if p.Stats.TotalSessions != 1 || p.Stats.TotalMinutes != 10 || p.XP != 10 {
		t.Fatalf("incomplete session must count toward totals and xp: %+v xp=%d", p.Stats, p.XP)
	}
	if p.Stats.CurrentStreak != 0 || p.Stats.LastSessionDate != 0 {
		t.Fatalf("incomplete session must not touch the streak: %+v", p.Stats)
	}
}

func TestOlderSessionLeavesStreakAlone(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	p.ApplySession(completed("new", day(2024, 1, 10, 9)), time.UTC)
	p.ApplySession(completed("old", day(2024, 1, 2, 9)), time.UTC)
	if p.Stats.CurrentStreak != 1 || p.Stats.LastSessionDate != day(2024, 1, 10, 9).UnixMilli() {
		t.Fatalf("backdated session changed streak state: %+v", p.Stats)
	}
}

func TestApplySessionReportsLevelUp(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	p.XP = 95
	p.Level = LevelFor(p.XP)
	change := p.ApplySession(completed("x", day(2024, 1, 1, 9)), time.UTC)
	if !change.Up() || change.From != 1 || change.To != 2 {
		t.Fatalf("want level 1->2, got %+v", change)
	}
}

func TestRecentSessionWindowIsBounded(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	for i := 0; i < RecentSessionWindow+10; i++ {
		p.ApplySession(SessionFacts{ID: time.Duration(i).String(), Date: day(2024, 1, 1, 9), Type: SessionSound, Duration: 1}, time.UTC)
	}
	if len(p.RecentSessionIDs) != RecentSessionWindow {
		t.Fatalf("window size = %d", len(p.RecentSessionIDs))
	}
	if p.Seen(time.Duration(0).String()) {
		t.Fatalf("oldest id should have been evicted")
	}
	if !p.Seen(time.Duration(RecentSessionWindow + 9).String()) {
		t.Fatalf("newest id should be remembered")
	}
}

func TestAddXPRejectsNegative(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	if _, err := p.AddXP(-1); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestFavorites(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	if !p.AddFavorite(FavoriteSounds, "chakra_root") || p.AddFavorite(FavoriteSounds, "chakra_root") {
		t.Fatalf("AddFavorite must be idempotent")
	}
	if len(p.Preferences.FavoriteSounds) != 1 {
		t.Fatalf("favorites = %v", p.Preferences.FavoriteSounds)
	}
	if !p.RemoveFavorite(FavoriteSounds, "chakra_root") || p.RemoveFavorite(FavoriteSounds, "chakra_root") {
		t.Fatalf("RemoveFavorite must report changes once")
	}
	if kind, err := ParseFavoriteKind("breathPatterns"); err != nil || kind != FavoriteBreathPatterns {
		t.Fatalf("ParseFavoriteKind = %q, %v", kind, err)
	}
	if _, err := ParseFavoriteKind("colors"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSetPreference(t *testing.T) {
	t.Parallel()
	p := NewDefault(day(2024, 1, 1, 0))
	if err := p.SetPreference("theme", json.RawMessage(`"dark"`)); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if err := p.SetPreference("soundVolume", json.RawMessage(`0.8`)); err != nil {
		t.Fatalf("set volume: %v", err)
	}
	if err := p.SetPreference("language", json.RawMessage(`"de"`)); err != nil {
		t.Fatalf("set extra: %v", err)
	}
	if p.Preferences.Theme != "dark" || p.Preferences.SoundVolume != 0.8 || p.Preferences.Extra["language"] != "de" {
		t.Fatalf("unexpected preferences: %+v", p.Preferences)
	}
	if err := p.SetPreference("soundVolume", json.RawMessage(`3`)); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid volume, got %v", err)
	}
	if err := p.SetPreference("theme", json.RawMessage(`42`)); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected type error, got %v", err)
	}
}

func TestFavoriteTimeOfDay(t *testing.T) {
	t.Parallel()
	dates := []time.Time{day(2024, 1, 1, 7), day(2024, 1, 2, 19), day(2024, 1, 3, 20), day(2024, 1, 4, 23)}
	if got := FavoriteTimeOfDay(dates, time.UTC); got != Evening {
		t.Fatalf("favorite = %q", got)
	}
	if got := FavoriteTimeOfDay(nil, time.UTC); got != "" {
		t.Fatalf("empty history should have no favorite, got %q", got)
	}
	if TimeOfDay(6) != Morning || TimeOfDay(12) != Afternoon || TimeOfDay(18) != Evening || TimeOfDay(22) != Night || TimeOfDay(3) != Night {
		t.Fatalf("unexpected bucket boundaries")
	}
}

func TestNormalizeRepairsLevelAndStreak(t *testing.T) {
	t.Parallel()
	p := Profile{XP: 320, Level: 1, Stats: Stats{CurrentStreak: 4, LongestStreak: 2}}
	p.Normalize()
	if p.ID != LocalID || p.Level != 3 || p.Stats.LongestStreak != 4 || p.Preferences.FavoriteSounds == nil {
		t.Fatalf("unexpected normalized profile: %+v", p)
	}
}
