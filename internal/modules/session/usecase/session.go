package usecase

import (
	"context"
	"time"

	achievementin "sacredsound/internal/modules/achievement/port/in"
	profiledto "sacredsound/internal/modules/profile/dto"
	profilein "sacredsound/internal/modules/profile/port/in"
	"sacredsound/internal/modules/session/domain"
	sessiondto "sacredsound/internal/modules/session/dto"
	sessionin "sacredsound/internal/modules/session/port/in"
	"sacredsound/internal/modules/session/service"
	"sacredsound/internal/platform/clock"
	"sacredsound/internal/platform/events"
	"sacredsound/internal/platform/logger"
)

type Interactor struct {
	log       *logger.Logger
	svc       *service.SessionService
	recorder  profilein.Recorder
	checker   achievementin.Checker
	publisher events.Publisher
}

var _ sessionin.Usecase = (*Interactor)(nil)

// NewInteractor wires the save flow: persist, update profile stats, then
// evaluate achievements. checker may be nil.
func NewInteractor(log *logger.Logger, svc *service.SessionService, recorder profilein.Recorder, checker achievementin.Checker, publisher events.Publisher) *Interactor {
	if log == nil {
		log = logger.NewNop()
	}
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Interactor{
		log:       log.With("usecase", "session"),
		svc:       svc,
		recorder:  recorder,
		checker:   checker,
		publisher: publisher,
	}
}

func (i *Interactor) SaveSession(ctx context.Context, input sessiondto.SaveInput) (sessiondto.SaveOutput, error) {
	session := domain.Session{
		Type:          domain.Type(input.Type),
		Pattern:       input.Pattern,
		GuidedSession: input.GuidedSession,
		Name:          input.Name,
		Duration:      input.Duration,
		MoodBefore:    input.MoodBefore,
		MoodAfter:     input.MoodAfter,
		Sounds:        append([]string(nil), input.Sounds...),
		Completed:     input.Completed,
		Notes:         input.Notes,
	}
	if parsed, err := domain.ParseType(input.Type); err == nil {
		session.Type = parsed
	}
	if !input.Date.IsZero() {
		session.Date = input.Date.UnixMilli()
	}
	saved, err := i.svc.Create(ctx, session)
	if err != nil {
		return sessiondto.SaveOutput{}, err
	}

	recorded, err := i.recorder.RecordSession(ctx, profiledto.SessionInput{
		SessionID: saved.ID,
		Date:      saved.Time(),
		Type:      string(saved.Type),
		Duration:  saved.Duration,
		Completed: saved.Completed,
	})
	if err != nil {
		return sessiondto.SaveOutput{}, err
	}
	out := sessiondto.SaveOutput{
		Session:   toOutput(saved),
		XPGained:  recorded.XPGained,
		Level:     recorded.Profile.Level,
		LevelUp:   recorded.LevelUp,
		Duplicate: recorded.Duplicate,
	}
	i.publisher.Publish(ctx, events.Event{
		Kind: events.KindSessionSaved,
		Data: map[string]any{
			"id":       saved.ID,
			"type":     string(saved.Type),
			"duration": saved.Duration,
			"xp":       recorded.XPGained,
		},
	})

	if i.checker != nil {
		checked, err := i.checker.Check(ctx)
		if err != nil {
			i.log.Warn("achievement check failed after save", "session_id", saved.ID, "error", err)
		} else {
			for _, unlocked := range checked.Unlocked {
				out.Achievements = append(out.Achievements, unlocked.ID)
			}
			if checked.Level > out.Level {
				out.Level = checked.Level
				out.LevelUp = true
			}
		}
	}
	return out, nil
}

func (i *Interactor) GetAllSessions(ctx context.Context) ([]sessiondto.SessionOutput, error) {
	sessions, err := i.svc.All(ctx)
	if err != nil {
		return nil, err
	}
	return toOutputs(sessions), nil
}

func (i *Interactor) GetSessionsInRange(ctx context.Context, input sessiondto.RangeInput) ([]sessiondto.SessionOutput, error) {
	sessions, err := i.svc.InRange(ctx, input.From, input.To)
	if err != nil {
		return nil, err
	}
	return toOutputs(sessions), nil
}

func (i *Interactor) GetSessionsForDate(ctx context.Context, day time.Time) ([]sessiondto.SessionOutput, error) {
	sessions, err := i.svc.ForDate(ctx, day)
	if err != nil {
		return nil, err
	}
	return toOutputs(sessions), nil
}

func (i *Interactor) DeleteSession(ctx context.Context, sessionID string) error {
	return i.svc.Delete(ctx, sessionID)
}

func (i *Interactor) SaveCustomSession(ctx context.Context, input sessiondto.CustomSessionInput) (sessiondto.CustomSessionOutput, error) {
	custom, err := i.svc.SaveCustom(ctx, domain.CustomSession{
		Name:        input.Name,
		Type:        domain.Type(input.Type),
		Pattern:     input.Pattern,
		Duration:    input.Duration,
		Sounds:      append([]string(nil), input.Sounds...),
		Description: input.Description,
	})
	if err != nil {
		return sessiondto.CustomSessionOutput{}, err
	}
	return toCustomOutput(custom), nil
}

func (i *Interactor) ListCustomSessions(ctx context.Context) ([]sessiondto.CustomSessionOutput, error) {
	items, err := i.svc.ListCustom(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.CustomSessionOutput, 0, len(items))
	for _, item := range items {
		out = append(out, toCustomOutput(item))
	}
	return out, nil
}

func (i *Interactor) DeleteCustomSession(ctx context.Context, id string) error {
	return i.svc.DeleteCustom(ctx, id)
}

func toOutputs(sessions []domain.Session) []sessiondto.SessionOutput {
	out := make([]sessiondto.SessionOutput, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toOutput(s))
	}
	return out
}

func toOutput(s domain.Session) sessiondto.SessionOutput {
	return sessiondto.SessionOutput{
		ID:            s.ID,
		Date:          s.Time(),
		Type:          string(s.Type),
		Pattern:       s.Pattern,
		GuidedSession: s.GuidedSession,
		Name:          s.Name,
		Duration:      s.Duration,
		MoodBefore:    s.MoodBefore,
		MoodAfter:     s.MoodAfter,
		Sounds:        append([]string(nil), s.Sounds...),
		Completed:     s.Completed,
		Notes:         s.Notes,
	}
}

func toCustomOutput(c domain.CustomSession) sessiondto.CustomSessionOutput {
	return sessiondto.CustomSessionOutput{
		ID:          c.ID,
		Name:        c.Name,
		Type:        string(c.Type),
		Pattern:     c.Pattern,
		Duration:    c.Duration,
		Sounds:      append([]string(nil), c.Sounds...),
		Description: c.Description,
		Created:     clock.FromMillis(c.Created),
	}
}
