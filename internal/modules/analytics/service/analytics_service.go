package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"sacredsound/internal/modules/analytics/domain"
	analyticsout "sacredsound/internal/modules/analytics/port/out"
	"sacredsound/internal/platform/clock"
	apperrors "sacredsound/internal/platform/errors"
)

type AnalyticsService struct {
	clock    clock.Clock
	loc      *time.Location
	sessions analyticsout.SessionSource
	profile  analyticsout.ProfileSource
}

func NewAnalyticsService(clk clock.Clock, loc *time.Location, sessions analyticsout.SessionSource, profile analyticsout.ProfileSource) *AnalyticsService {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{clock: clk, loc: loc, sessions: sessions, profile: profile}
}

func (s *AnalyticsService) Mood(ctx context.Context) (domain.MoodSummary, error) {
	entries, err := s.sessions.Entries(ctx)
	if err != nil {
		return domain.MoodSummary{}, err
	}
	return domain.MoodStats(entries), nil
}

func (s *AnalyticsService) Calendar(ctx context.Context, year int, month time.Month) ([]domain.CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", apperrors.ErrInvalidInput, month)
	}
	from, to := domain.MonthBounds(year, month, s.loc)
	entries, err := s.sessions.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return domain.Calendar(entries, year, month, s.loc), nil
}

func (s *AnalyticsService) TimeOfDay(ctx context.Context) ([]domain.TimeSlot, error) {
	entries, err := s.sessions.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return domain.TimeOfDay(entries, s.loc), nil
}

func (s *AnalyticsService) MostUsed(ctx context.Context) (domain.MostUsedSummary, error) {
	entries, err := s.sessions.Entries(ctx)
	if err != nil {
		return domain.MostUsedSummary{}, err
	}
	return domain.MostUsed(entries), nil
}

// Streaks recomputes both streaks from the session history.
func (s *AnalyticsService) Streaks(ctx context.Context) (current, longest int, err error) {
	entries, err := s.sessions.Entries(ctx)
	if err != nil {
		return 0, 0, err
	}
	current, longest = domain.Streaks(entries, s.clock.Now(), s.loc)
	return current, longest, nil
}

func (s *AnalyticsService) Recommendations(ctx context.Context) ([]domain.Recommendation, error) {
	entries, err := s.sessions.Entries(ctx)
	if err != nil {
		return nil, err
	}
	facts, err := s.profile.Facts(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(entries)
	now := s.clock.Now()
	today := clock.StartOfDay(now, s.loc)
	practicedToday := false
	for _, e := range entries {
		if e.Completed && !clock.StartOfDay(e.Date, s.loc).Before(today) {
			practicedToday = true
			break
		}
	}
	return domain.Recommend(domain.RecommendInput{
		Now:              now,
		Location:         s.loc,
		FavoritePatterns: facts.FavoritePatterns,
		Recent:           entries,
		CurrentStreak:    facts.CurrentStreak,
		PracticedToday:   practicedToday,
	}), nil
}

var csvHeader = []string{"Date", "Time", "Type", "Pattern", "Duration", "Mood Before", "Mood After", "Completed", "Notes"}

// ExportCSV writes every session, newest first, as CSV.
func (s *AnalyticsService) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	entries, err := s.sessions.Entries(ctx)
	if err != nil {
		return 0, err
	}
	newestFirst(entries)
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, e := range entries {
		local := e.Date.In(s.loc)
		completed := "No"
		if e.Completed {
			completed = "Yes"
		}
		row := []string{
			local.Format("2006-01-02"),
			local.Format("15:04:05"),
			e.Type,
			e.Pattern,
			strconv.Itoa(e.Duration),
			optionalInt(e.MoodBefore),
			optionalInt(e.MoodAfter),
			completed,
			e.Notes,
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(entries), cw.Error()
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func newestFirst(entries []domain.Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
}
