package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sacredsound/internal/modules/backup/domain"
	backupout "sacredsound/internal/modules/backup/port/out"
	"sacredsound/internal/platform/clock"
	"sacredsound/internal/platform/codec"
	apperrors "sacredsound/internal/platform/errors"
	"sacredsound/internal/platform/logger"
)

// ArchiveService ships backups to an off-device archive and restores them.
// A nil archive leaves every operation failing with ErrArchiveNotConfigured.
type ArchiveService struct {
	log     *logger.Logger
	clock   clock.Clock
	backups *BackupService
	archive backupout.Archive
}

func NewArchiveService(log *logger.Logger, clk clock.Clock, backups *BackupService, archive backupout.Archive) *ArchiveService {
	if log == nil {
		log = logger.NewNop()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &ArchiveService{log: log.With("service", "ArchiveService"), clock: clk, backups: backups, archive: archive}
}

func (s *ArchiveService) Upload(ctx context.Context, format codec.Format) (domain.ArchiveObject, domain.Snapshot, error) {
	if s.archive == nil {
		return domain.ArchiveObject{}, domain.Snapshot{}, domain.ErrArchiveNotConfigured
	}
	data, snapshot, err := s.backups.Export(ctx, format)
	if err != nil {
		return domain.ArchiveObject{}, domain.Snapshot{}, err
	}
	object := domain.ArchiveObject{
		Name:     domain.ArchiveName(snapshot.ExportedAt, string(format)),
		Size:     int64(len(data)),
		Modified: snapshot.ExportedAt,
	}
	if err := s.archive.Put(ctx, object.Name, data); err != nil {
		return domain.ArchiveObject{}, domain.Snapshot{}, fmt.Errorf("upload %s: %w", object.Name, err)
	}
	s.log.Info("uploaded backup", "name", object.Name, "bytes", object.Size, "records", snapshot.Count())
	return object, snapshot, nil
}

// List returns archived backups, newest first.
func (s *ArchiveService) List(ctx context.Context) ([]domain.ArchiveObject, error) {
	if s.archive == nil {
		return nil, domain.ErrArchiveNotConfigured
	}
	objects, err := s.archive.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	out := make([]domain.ArchiveObject, 0, len(objects))
	for _, object := range objects {
		if domain.IsArchiveName(object.Name) {
			out = append(out, object)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Restore imports the named backup, or the newest one when name is empty.
func (s *ArchiveService) Restore(ctx context.Context, name string, replace bool) (string, domain.ImportReport, error) {
	if s.archive == nil {
		return "", domain.ImportReport{}, domain.ErrArchiveNotConfigured
	}
	name = strings.TrimSpace(name)
	if name == "" {
		objects, err := s.List(ctx)
		if err != nil {
			return "", domain.ImportReport{}, err
		}
		if len(objects) == 0 {
			return "", domain.ImportReport{}, fmt.Errorf("%w: archive holds no backups", apperrors.ErrNotFound)
		}
		name = objects[0].Name
	}
	data, err := s.archive.Get(ctx, name)
	if err != nil {
		return "", domain.ImportReport{}, fmt.Errorf("download %s: %w", name, err)
	}
	report, err := s.backups.Import(ctx, data, replace)
	if err != nil {
		return "", domain.ImportReport{}, err
	}
	return name, report, nil
}
