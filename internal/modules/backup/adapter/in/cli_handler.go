package in

import (
	"context"

	backupdto "sacredsound/internal/modules/backup/dto"
	backupin "sacredsound/internal/modules/backup/port/in"
)

type CLIHandler struct {
	usecase backupin.Usecase
}

func NewCLIHandler(usecase backupin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Export(ctx context.Context, format string) (backupdto.ExportOutput, error) {
	return h.usecase.Export(ctx, backupdto.ExportInput{Format: format})
}

func (h CLIHandler) Import(ctx context.Context, data []byte, replace bool) (backupdto.ImportOutput, error) {
	return h.usecase.Import(ctx, backupdto.ImportInput{Data: data, Replace: replace})
}

func (h CLIHandler) Upload(ctx context.Context, format string) (backupdto.UploadOutput, error) {
	return h.usecase.Upload(ctx, backupdto.UploadInput{Format: format})
}

func (h CLIHandler) Restore(ctx context.Context, name string, replace bool) (backupdto.RestoreOutput, error) {
	return h.usecase.Restore(ctx, backupdto.RestoreInput{Name: name, Replace: replace})
}

func (h CLIHandler) Archives(ctx context.Context) ([]backupdto.ArchiveOutput, error) {
	return h.usecase.ListArchives(ctx)
}
