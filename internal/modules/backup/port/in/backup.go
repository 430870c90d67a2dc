package in

import (
	"context"

	"sacredsound/internal/modules/backup/dto"
)

type Usecase interface {
	Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
	Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error)
	Upload(ctx context.Context, input dto.UploadInput) (dto.UploadOutput, error)
	Restore(ctx context.Context, input dto.RestoreInput) (dto.RestoreOutput, error)
	ListArchives(ctx context.Context) ([]dto.ArchiveOutput, error)
}
