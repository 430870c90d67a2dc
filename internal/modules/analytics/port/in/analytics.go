package in

import (
	"context"
	"io"

	"sacredsound/internal/modules/analytics/dto"
)

type Usecase interface {
	MoodStats(ctx context.Context) (dto.MoodOutput, error)
	Calendar(ctx context.Context, year, month int) (dto.CalendarOutput, error)
	TimeOfDay(ctx context.Context) ([]dto.TimeSlotOutput, error)
	MostUsed(ctx context.Context) (dto.MostUsedOutput, error)
	Streak(ctx context.Context) (dto.StreakOutput, error)
	Recommendations(ctx context.Context) ([]dto.RecommendationOutput, error)
	ExportCSV(ctx context.Context, w io.Writer) (int, error)
}
