package usecase

import (
	"context"

	"sacredsound/internal/modules/sync/dto"
	syncin "sacredsound/internal/modules/sync/port/in"
	"sacredsound/internal/modules/sync/service"
	"sacredsound/internal/platform/clock"
)

type Interactor struct {
	svc *service.Coordinator
}

func NewInteractor(svc *service.Coordinator) syncin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Status(ctx context.Context) dto.StatusOutput {
	status := i.svc.Status(ctx)
	byCollection := make(map[string]int, len(status.ByCollection))
	for collection, n := range status.ByCollection {
		byCollection[string(collection)] = n
	}
	return dto.StatusOutput{
		Online:           status.Online,
		BackendAvailable: status.BackendAvailable,
		Pending:          status.Pending,
		Parked:           status.Parked,
		ByCollection:     byCollection,
		LastDrain:        status.LastDrain,
	}
}

func (i *Interactor) Flush(ctx context.Context) (dto.DrainOutput, error) {
	if !i.svc.Status(ctx).BackendAvailable {
		i.svc.Probe(ctx)
	}
	report, err := i.svc.Drain(ctx)
	out := dto.DrainOutput{
		Attempted: report.Attempted,
		Applied:   report.Applied,
		Failed:    report.Failed,
		Parked:    report.Parked,
		Aborted:   report.Aborted,
		Skipped:   report.Skipped,
		Remaining: i.svc.Status(ctx).Pending,
	}
	return out, err
}

func (i *Interactor) SetOnline(ctx context.Context, online bool) dto.StatusOutput {
	i.svc.SetOnline(ctx, online)
	return i.Status(ctx)
}

func (i *Interactor) Probe(ctx context.Context) dto.StatusOutput {
	i.svc.Probe(ctx)
	return i.Status(ctx)
}

func (i *Interactor) RequeueParked(ctx context.Context) (int, error) {
	return i.svc.RequeueParked(ctx)
}

func (i *Interactor) ListQueue(ctx context.Context) []dto.QueueEntryOutput {
	entries := i.svc.Queue(ctx)
	out := make([]dto.QueueEntryOutput, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.QueueEntryOutput{
			Seq:        entry.Seq,
			Collection: string(entry.Collection),
			Action:     string(entry.Action),
			Key:        entry.Key,
			Timestamp:  clock.FromMillis(entry.Timestamp),
			RetryCount: entry.RetryCount,
			LastError:  entry.LastError,
			Parked:     entry.Parked,
		})
	}
	return out
}
