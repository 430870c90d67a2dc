package in

import (
	"context"
	"io"

	analyticsdto "sacredsound/internal/modules/analytics/dto"
	analyticsin "sacredsound/internal/modules/analytics/port/in"
)

type CLIHandler struct {
	usecase analyticsin.Usecase
}

func NewCLIHandler(usecase analyticsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Mood(ctx context.Context) (analyticsdto.MoodOutput, error) {
	return h.usecase.MoodStats(ctx)
}

func (h CLIHandler) Calendar(ctx context.Context, year, month int) (analyticsdto.CalendarOutput, error) {
	return h.usecase.Calendar(ctx, year, month)
}

func (h CLIHandler) TimeOfDay(ctx context.Context) ([]analyticsdto.TimeSlotOutput, error) {
	return h.usecase.TimeOfDay(ctx)
}

func (h CLIHandler) MostUsed(ctx context.Context) (analyticsdto.MostUsedOutput, error) {
	return h.usecase.MostUsed(ctx)
}

func (h CLIHandler) Streak(ctx context.Context) (analyticsdto.StreakOutput, error) {
	return h.usecase.Streak(ctx)
}

func (h CLIHandler) Recommendations(ctx context.Context) ([]analyticsdto.RecommendationOutput, error) {
	return h.usecase.Recommendations(ctx)
}

func (h CLIHandler) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	return h.usecase.ExportCSV(ctx, w)
}
