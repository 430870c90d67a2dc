package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"sacredsound/internal/modules/backup/domain"
	syncdomain "sacredsound/internal/modules/sync/domain"
	syncin "sacredsound/internal/modules/sync/port/in"
	"sacredsound/internal/platform/clock"
	"sacredsound/internal/platform/codec"
	apperrors "sacredsound/internal/platform/errors"
	"sacredsound/internal/platform/logger"
)

const appName = "sacredsound"

type BackupService struct {
	log   *logger.Logger
	clock clock.Clock
	store syncin.Store
}

func NewBackupService(log *logger.Logger, clk clock.Clock, store syncin.Store) *BackupService {
	if log == nil {
		log = logger.NewNop()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &BackupService{log: log.With("service", "BackupService"), clock: clk, store: store}
}

// Snapshot reads every collection concurrently.
func (s *BackupService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	collections := syncdomain.DataCollections
	results := make([][]map[string]any, len(collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, collection := range collections {
		i, collection := i, collection
		g.Go(func() error {
			records, err := s.store.GetAll(gctx, collection)
			if err != nil {
				return fmt.Errorf("read %s: %w", collection, err)
			}
			decoded := make([]map[string]any, 0, len(records))
			for _, raw := range records {
				record, err := codec.DecodeRecord(raw)
				if err != nil {
					s.log.Warn("skipping undecodable record", "collection", collection, "error", err)
					continue
				}
				decoded = append(decoded, record)
			}
			sort.SliceStable(decoded, func(a, b int) bool {
				return fmt.Sprint(decoded[a]["id"]) < fmt.Sprint(decoded[b]["id"])
			})
			results[i] = decoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}
	snapshot := domain.Snapshot{
		Version:     domain.SnapshotVersion,
		App:         appName,
		ExportedAt:  s.clock.Now().UTC(),
		Collections: map[string][]map[string]any{},
	}
	for i, collection := range collections {
		snapshot.Collections[string(collection)] = results[i]
	}
	return snapshot, nil
}

func (s *BackupService) Export(ctx context.Context, format codec.Format) ([]byte, domain.Snapshot, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, domain.Snapshot{}, err
	}
	data, err := codec.Marshal(format, snapshot)
	if err != nil {
		return nil, domain.Snapshot{}, err
	}
	s.log.Info("exported backup", "format", format, "records", snapshot.Count())
	return data, snapshot, nil
}

// Import writes every record of a snapshot locally and offers it to the
// backend once. With replace the local store and the sync queue are wiped
// first.
func (s *BackupService) Import(ctx context.Context, data []byte, replace bool) (domain.ImportReport, error) {
	snapshot := domain.Snapshot{}
	if err := codec.Unmarshal(codec.Detect(data), data, &snapshot); err != nil {
		return domain.ImportReport{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if snapshot.Version > domain.SnapshotVersion {
		return domain.ImportReport{}, fmt.Errorf("%w: backup version %d is newer than supported %d", apperrors.ErrInvalidInput, snapshot.Version, domain.SnapshotVersion)
	}
	if snapshot.Collections == nil {
		return domain.ImportReport{}, fmt.Errorf("%w: backup has no collections", apperrors.ErrInvalidInput)
	}
	for name := range snapshot.Collections {
		if _, err := syncdomain.ParseCollection(name); err != nil {
			return domain.ImportReport{}, err
		}
	}

	report := domain.ImportReport{Imported: map[string]int{}}
	if replace {
		if err := s.store.ClearLocal(ctx); err != nil {
			return report, fmt.Errorf("clear local data: %w", err)
		}
		report.ClearedFirst = true
	}
	for _, collection := range syncdomain.DataCollections {
		for _, record := range snapshot.Collections[string(collection)] {
			if record == nil {
				report.Skipped++
				continue
			}
			if collection == syncdomain.CollectionUserProfile {
				record["id"] = syncdomain.PrimaryProfileKey
			}
			raw, err := codec.EncodeRecord(record)
			if err != nil {
				report.Skipped++
				continue
			}
			if _, err := syncdomain.RecordKey(raw); err != nil {
				report.Skipped++
				continue
			}
			if err := s.store.PutDirect(ctx, collection, json.RawMessage(raw)); err != nil {
				return report, fmt.Errorf("import %s: %w", collection, err)
			}
			report.Imported[string(collection)]++
		}
	}
	s.log.Info("imported backup", "imported", report.Imported, "skipped", report.Skipped, "replace", replace)
	return report, nil
}
