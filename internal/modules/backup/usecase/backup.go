package usecase

import (
	"context"
	"fmt"

	"sacredsound/internal/modules/backup/domain"
	backupdto "sacredsound/internal/modules/backup/dto"
	backupin "sacredsound/internal/modules/backup/port/in"
	"sacredsound/internal/modules/backup/service"
	"sacredsound/internal/platform/codec"
	apperrors "sacredsound/internal/platform/errors"
)

type Interactor struct {
	svc     *service.BackupService
	archive *service.ArchiveService
}

var _ backupin.Usecase = (*Interactor)(nil)

func NewInteractor(svc *service.BackupService, archive *service.ArchiveService) *Interactor {
	if archive == nil {
		archive = service.NewArchiveService(nil, nil, svc, nil)
	}
	return &Interactor{svc: svc, archive: archive}
}

func (i *Interactor) Export(ctx context.Context, input backupdto.ExportInput) (backupdto.ExportOutput, error) {
	format, err := codec.ParseFormat(input.Format)
	if err != nil {
		return backupdto.ExportOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	data, snapshot, err := i.svc.Export(ctx, format)
	if err != nil {
		return backupdto.ExportOutput{}, err
	}
	out := backupdto.ExportOutput{
		Data:       data,
		Format:     string(format),
		ExportedAt: snapshot.ExportedAt,
		Records:    map[string]int{},
	}
	for name, records := range snapshot.Collections {
		out.Records[name] = len(records)
	}
	return out, nil
}

func (i *Interactor) Import(ctx context.Context, input backupdto.ImportInput) (backupdto.ImportOutput, error) {
	if len(input.Data) == 0 {
		return backupdto.ImportOutput{}, fmt.Errorf("%w: backup is empty", apperrors.ErrInvalidInput)
	}
	report, err := i.svc.Import(ctx, input.Data, input.Replace)
	if err != nil {
		return backupdto.ImportOutput{}, err
	}
	return backupdto.ImportOutput{Imported: report.Imported, Skipped: report.Skipped, Replaced: report.ClearedFirst}, nil
}

func (i *Interactor) Upload(ctx context.Context, input backupdto.UploadInput) (backupdto.UploadOutput, error) {
	format, err := codec.ParseFormat(input.Format)
	if err != nil {
		return backupdto.UploadOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	object, snapshot, err := i.archive.Upload(ctx, format)
	if err != nil {
		return backupdto.UploadOutput{}, err
	}
	out := backupdto.UploadOutput{Archive: toArchiveOutput(object), Records: map[string]int{}}
	for name, records := range snapshot.Collections {
		out.Records[name] = len(records)
	}
	return out, nil
}

func (i *Interactor) Restore(ctx context.Context, input backupdto.RestoreInput) (backupdto.RestoreOutput, error) {
	name, report, err := i.archive.Restore(ctx, input.Name, input.Replace)
	if err != nil {
		return backupdto.RestoreOutput{}, err
	}
	return backupdto.RestoreOutput{
		Name:   name,
		Import: backupdto.ImportOutput{Imported: report.Imported, Skipped: report.Skipped, Replaced: report.ClearedFirst},
	}, nil
}

func (i *Interactor) ListArchives(ctx context.Context) ([]backupdto.ArchiveOutput, error) {
	objects, err := i.archive.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]backupdto.ArchiveOutput, 0, len(objects))
	for _, object := range objects {
		out = append(out, toArchiveOutput(object))
	}
	return out, nil
}

func toArchiveOutput(object domain.ArchiveObject) backupdto.ArchiveOutput {
	return backupdto.ArchiveOutput{Name: object.Name, Size: object.Size, Modified: object.Modified}
}
