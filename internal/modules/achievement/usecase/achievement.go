package usecase

import (
	"context"

	achievementdto "sacredsound/internal/modules/achievement/dto"
	achievementin "sacredsound/internal/modules/achievement/port/in"
	"sacredsound/internal/modules/achievement/service"
	"sacredsound/internal/platform/clock"
)

type Interactor struct {
	svc *service.Evaluator
}

var _ achievementin.Usecase = (*Interactor)(nil)

func NewInteractor(svc *service.Evaluator) *Interactor {
	return &Interactor{svc: svc}
}

func (i *Interactor) Check(ctx context.Context) (achievementdto.CheckOutput, error) {
	result, err := i.svc.Check(ctx)
	if err != nil {
		return achievementdto.CheckOutput{}, err
	}
	out := achievementdto.CheckOutput{Checked: result.Checked, XPAwarded: result.XPAwarded, Level: result.Level}
	for _, u := range result.Unlocked {
		out.Unlocked = append(out.Unlocked, toUnlockOutput(u))
	}
	return out, nil
}

func (i *Interactor) List(ctx context.Context) (achievementdto.ListOutput, error) {
	statuses, err := i.svc.List(ctx)
	if err != nil {
		return achievementdto.ListOutput{}, err
	}
	out := achievementdto.ListOutput{Total: len(statuses)}
	for _, s := range statuses {
		item := achievementdto.StatusOutput{
			ID:          s.Definition.ID,
			Name:        s.Definition.Name,
			Description: s.Definition.Description,
			XPBonus:     s.Definition.XPBonus,
			Progress:    s.Progress,
			Target:      s.Target,
		}
		if s.Unlock != nil {
			item.Unlocked = true
			item.UnlockedAt = clock.FromMillis(s.Unlock.UnlockedAt)
			out.Unlocked++
		}
		out.Achievements = append(out.Achievements, item)
	}
	return out, nil
}

func (i *Interactor) Unlock(ctx context.Context, achievementID string) (achievementdto.UnlockOutput, error) {
	unlocked, _, err := i.svc.Unlock(ctx, achievementID)
	if err != nil {
		return achievementdto.UnlockOutput{}, err
	}
	return toUnlockOutput(unlocked), nil
}

func toUnlockOutput(u service.Unlocked) achievementdto.UnlockOutput {
	return achievementdto.UnlockOutput{
		ID:         u.Definition.ID,
		Name:       u.Definition.Name,
		XPBonus:    u.Definition.XPBonus,
		UnlockedAt: clock.FromMillis(u.Unlock.UnlockedAt),
	}
}
