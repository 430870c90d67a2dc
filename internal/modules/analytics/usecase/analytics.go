package usecase

import (
	"context"
	"io"
	"sort"
	"time"

	"sacredsound/internal/modules/analytics/domain"
	analyticsdto "sacredsound/internal/modules/analytics/dto"
	analyticsin "sacredsound/internal/modules/analytics/port/in"
	"sacredsound/internal/modules/analytics/service"
)

type Interactor struct {
	svc *service.AnalyticsService
}

var _ analyticsin.Usecase = (*Interactor)(nil)

func NewInteractor(svc *service.AnalyticsService) *Interactor {
	return &Interactor{svc: svc}
}

func (i *Interactor) MoodStats(ctx context.Context) (analyticsdto.MoodOutput, error) {
	summary, err := i.svc.Mood(ctx)
	if err != nil {
		return analyticsdto.MoodOutput{}, err
	}
	out := analyticsdto.MoodOutput{Average: summary.Average, Total: summary.Total}
	for t, tm := range summary.ByType {
		out.ByType = append(out.ByType, analyticsdto.TypeMoodOutput{Type: t, Count: tm.Count, Average: tm.Average})
	}
	sort.Slice(out.ByType, func(a, b int) bool { return out.ByType[a].Type < out.ByType[b].Type })
	return out, nil
}

func (i *Interactor) Calendar(ctx context.Context, year, month int) (analyticsdto.CalendarOutput, error) {
	days, err := i.svc.Calendar(ctx, year, time.Month(month))
	if err != nil {
		return analyticsdto.CalendarOutput{}, err
	}
	out := analyticsdto.CalendarOutput{Year: year, Month: month}
	for _, d := range days {
		out.Days = append(out.Days, analyticsdto.CalendarDayOutput{
			Day:          d.Day,
			Sessions:     len(d.SessionIDs),
			SessionIDs:   d.SessionIDs,
			TotalMinutes: d.TotalMinutes,
			Types:        d.Types,
		})
	}
	return out, nil
}

func (i *Interactor) TimeOfDay(ctx context.Context) ([]analyticsdto.TimeSlotOutput, error) {
	slots, err := i.svc.TimeOfDay(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]analyticsdto.TimeSlotOutput, 0, len(slots))
	for _, s := range slots {
		out = append(out, analyticsdto.TimeSlotOutput{Name: s.Name, Label: s.Label, Count: s.Count})
	}
	return out, nil
}

func (i *Interactor) MostUsed(ctx context.Context) (analyticsdto.MostUsedOutput, error) {
	summary, err := i.svc.MostUsed(ctx)
	if err != nil {
		return analyticsdto.MostUsedOutput{}, err
	}
	return analyticsdto.MostUsedOutput{
		Patterns:       usage(summary.Patterns),
		Sounds:         usage(summary.Sounds),
		GuidedSessions: usage(summary.GuidedSessions),
	}, nil
}

func usage(in []domain.Usage) []analyticsdto.UsageOutput {
	out := make([]analyticsdto.UsageOutput, 0, len(in))
	for _, u := range in {
		out = append(out, analyticsdto.UsageOutput{Name: u.Name, Count: u.Count})
	}
	return out
}

func (i *Interactor) Streak(ctx context.Context) (analyticsdto.StreakOutput, error) {
	current, longest, err := i.svc.Streaks(ctx)
	if err != nil {
		return analyticsdto.StreakOutput{}, err
	}
	return analyticsdto.StreakOutput{CurrentStreak: current, LongestStreak: longest}, nil
}

func (i *Interactor) Recommendations(ctx context.Context) ([]analyticsdto.RecommendationOutput, error) {
	recs, err := i.svc.Recommendations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]analyticsdto.RecommendationOutput, 0, len(recs))
	for _, r := range recs {
		out = append(out, analyticsdto.RecommendationOutput{Type: r.Type, Pattern: r.Pattern, Session: r.Session, Reason: r.Reason})
	}
	return out, nil
}

func (i *Interactor) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	return i.svc.ExportCSV(ctx, w)
}
