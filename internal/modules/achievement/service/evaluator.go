package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sacredsound/internal/modules/achievement/domain"
	achievementout "sacredsound/internal/modules/achievement/port/out"
	"sacredsound/internal/platform/clock"
	"sacredsound/internal/platform/events"
	"sacredsound/internal/platform/logger"
)

type Evaluator struct {
	log       *logger.Logger
	clock     clock.Clock
	loc       *time.Location
	history   achievementout.History
	unlocks   achievementout.UnlockStore
	profile   achievementout.ProfileGateway
	publisher events.Publisher
	catalog   []domain.Definition

	mu sync.Mutex
}

type Deps struct {
	Log       *logger.Logger
	Clock     clock.Clock
	Location  *time.Location
	History   achievementout.History
	Unlocks   achievementout.UnlockStore
	Profile   achievementout.ProfileGateway
	Publisher events.Publisher
}

func NewEvaluator(deps Deps) *Evaluator {
	e := &Evaluator{
		log:       deps.Log,
		clock:     deps.Clock,
		loc:       deps.Location,
		history:   deps.History,
		unlocks:   deps.Unlocks,
		profile:   deps.Profile,
		publisher: deps.Publisher,
		catalog:   domain.Catalog(),
	}
	if e.log == nil {
		e.log = logger.NewNop()
	}
	e.log = e.log.With("service", "AchievementEvaluator")
	if e.clock == nil {
		e.clock = clock.SystemClock{}
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.publisher == nil {
		e.publisher = events.Discard{}
	}
	return e
}

type Unlocked struct {
	Definition domain.Definition
	Unlock     domain.Unlock
}

type CheckResult struct {
	Checked   int
	Unlocked  []Unlocked
	XPAwarded int
	Level     int
}

type Status struct {
	Definition domain.Definition
	Unlock     *domain.Unlock
	Progress   int
	Target     int
}

func (e *Evaluator) facts(ctx context.Context) (domain.Facts, domain.ProfileSnapshot, error) {
	snapshot, err := e.profile.Snapshot(ctx)
	if err != nil {
		return domain.Facts{}, domain.ProfileSnapshot{}, fmt.Errorf("load profile: %w", err)
	}
	sessions, err := e.history.Sessions(ctx)
	if err != nil {
		return domain.Facts{}, domain.ProfileSnapshot{}, fmt.Errorf("load sessions: %w", err)
	}
	return domain.Facts{
		Sessions:      sessions,
		TotalSessions: snapshot.TotalSessions,
		CurrentStreak: snapshot.CurrentStreak,
		Now:           e.clock.Now(),
		Location:      e.loc,
	}, snapshot, nil
}

func (e *Evaluator) existing(ctx context.Context) (map[string]domain.Unlock, error) {
	list, err := e.unlocks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load unlocks: %w", err)
	}
	out := make(map[string]domain.Unlock, len(list))
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}

// Check evaluates every locked rule and unlocks the satisfied ones. Only one
// check runs at a time so a rule is never unlocked twice.
func (e *Evaluator) Check(ctx context.Context) (CheckResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	facts, snapshot, err := e.facts(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	have, err := e.existing(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	result := CheckResult{}
	for _, def := range e.catalog {
		if _, ok := have[def.ID]; ok {
			continue
		}
		result.Checked++
		if !def.Satisfied(facts) {
			continue
		}
		unlock, level, err := e.unlock(ctx, def, snapshot.UserID)
		if err != nil {
			return result, err
		}
		result.Unlocked = append(result.Unlocked, Unlocked{Definition: def, Unlock: unlock})
		result.XPAwarded += def.XPBonus
		result.Level = level
	}
	if len(result.Unlocked) > 0 {
		e.log.Info("achievements unlocked", "count", len(result.Unlocked), "xp", result.XPAwarded)
	}
	return result, nil
}

// Unlock grants one achievement by id regardless of its rule. Granting an
// already unlocked id returns the existing record and false.
func (e *Evaluator) Unlock(ctx context.Context, achievementID string) (Unlocked, bool, error) {
	def, err := domain.Lookup(achievementID)
	if err != nil {
		return Unlocked{}, false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	have, err := e.existing(ctx)
	if err != nil {
		return Unlocked{}, false, err
	}
	if u, ok := have[def.ID]; ok {
		return Unlocked{Definition: def, Unlock: u}, false, nil
	}
	snapshot, err := e.profile.Snapshot(ctx)
	if err != nil {
		return Unlocked{}, false, fmt.Errorf("load profile: %w", err)
	}
	unlock, _, err := e.unlock(ctx, def, snapshot.UserID)
	if err != nil {
		return Unlocked{}, false, err
	}
	return Unlocked{Definition: def, Unlock: unlock}, true, nil
}

// unlock must run under e.mu. The unlock record is written before the bonus
// is credited.
func (e *Evaluator) unlock(ctx context.Context, def domain.Definition, userID string) (domain.Unlock, int, error) {
	unlock := domain.Unlock{
		ID:         def.ID,
		UserID:     userID,
		UnlockedAt: e.clock.Now().UnixMilli(),
		XPBonus:    def.XPBonus,
	}
	if err := e.unlocks.Save(ctx, unlock); err != nil {
		return domain.Unlock{}, 0, fmt.Errorf("save unlock %s: %w", def.ID, err)
	}
	profile, err := e.profile.AwardXP(ctx, def.XPBonus, "achievement:"+def.ID)
	if err != nil {
		return domain.Unlock{}, 0, fmt.Errorf("award xp for %s: %w", def.ID, err)
	}
	e.publisher.Publish(ctx, events.Event{
		Kind: events.KindAchievementUnlocked,
		Data: map[string]any{
			"id":      def.ID,
			"name":    def.Name,
			"xpBonus": def.XPBonus,
		},
	})
	return unlock, profile.Level, nil
}

// List reports every rule with its unlock state and progress.
func (e *Evaluator) List(ctx context.Context) ([]Status, error) {
	facts, _, err := e.facts(ctx)
	if err != nil {
		return nil, err
	}
	have, err := e.existing(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(e.catalog))
	for _, def := range e.catalog {
		status := Status{Definition: def}
		status.Progress, status.Target = def.Progress(facts)
		if u, ok := have[def.ID]; ok {
			status.Unlock = &u
			status.Progress = status.Target
		}
		out = append(out, status)
	}
	return out, nil
}
