package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"sacredsound/internal/modules/profile/domain"
	"sacredsound/internal/modules/profile/service"
	"sacredsound/internal/platform/events"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// memoryStore round-trips through JSON and yields between load and save so
// unsynchronised writers would lose updates.
type memoryStore struct {
	mu    sync.Mutex
	raw   []byte
	saves int
	dates []time.Time
}

func (m *memoryStore) Load(context.Context) (domain.Profile, bool, error) {
	m.mu.Lock()
	raw := m.raw
	m.mu.Unlock()
	runtime.Gosched()
	if raw == nil {
		return domain.Profile{}, false, nil
	}
	p := domain.Profile{}
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Profile{}, false, err
	}
	return p, true, nil
}

func (m *memoryStore) Save(_ context.Context, p domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.raw = raw
	m.saves++
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Dates(context.Context) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.dates...), nil
}

func (m *memoryStore) addDate(t time.Time) {
	m.mu.Lock()
	m.dates = append(m.dates, t)
	m.mu.Unlock()
}

type fakeIdentity struct {
	id  string
	err error
}

func (f fakeIdentity) Login(context.Context, string) (string, error) { return f.id, f.err }

func newService(store *memoryStore, clk *fakeClock, bus *events.Bus) *service.ProfileService {
	return service.NewProfileService(service.Deps{
		Clock:     clk,
		Location:  time.UTC,
		Store:     store,
		Sessions:  store,
		Publisher: bus,
	})
}

func facts(id string, at time.Time, kind string, minutes int) domain.SessionFacts {
	return domain.SessionFacts{ID: id, Date: at, Type: kind, Duration: minutes, Completed: true}
}

func TestGetCreatesDefaultProfileOnce(t *testing.T) {
	t.Parallel()
	store := &memoryStore{}
	svc := newService(store, &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}, events.NewBus())

	first, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if first.ID != domain.LocalID || first.Level != 1 || first.XP != 0 || first.Stats.TotalSessions != 0 {
		t.Fatalf("unexpected default profile: %+v", first)
	}
	if _, err := svc.Get(context.Background()); err != nil {
		t.Fatalf("get profile again: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("default profile saved %d times", store.saves)
	}
}

func TestRecordSessionFirstBreathworkScenario(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	svc := newService(store, &fakeClock{now: at}, events.NewBus())
	store.addDate(at)

	result, err := svc.RecordSession(context.Background(), facts("s1", at, domain.SessionBreathwork, 10))
	if err != nil {
		t.Fatalf("record session: %v", err)
	}
	p := result.Profile
	if p.Stats.TotalSessions != 1 || p.Stats.CurrentStreak != 1 || p.XP <= 0 || result.XPGained != 10 {
		t.Fatalf("unexpected profile after first session: %+v xp=%d", p.Stats, p.XP)
	}
	if p.Stats.SessionsThisWeek != 1 || p.Stats.SessionsThisMonth != 1 || p.Stats.FavoriteTimeOfDay != domain.Morning {
		t.Fatalf("rolling counters not refreshed: %+v", p.Stats)
	}
}

func TestWeekCounterStartsOnSunday(t *testing.T) {
	t.Parallel()
	// 2024-01-10 is a Wednesday; the week began Sunday 2024-01-07.
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	for _, d := range []int{2, 6, 7, 9, 10} {
		store.addDate(time.Date(2024, 1, d, 8, 0, 0, 0, time.UTC))
	}
	svc := newService(store, &fakeClock{now: now}, events.NewBus())

	result, err := svc.RecordSession(context.Background(), facts("s1", now, domain.SessionSound, 10))
	if err != nil {
		t.Fatalf("record session: %v", err)
	}
	if result.Profile.Stats.SessionsThisWeek != 3 || result.Profile.Stats.SessionsThisMonth != 5 {
		t.Fatalf("week=%d month=%d", result.Profile.Stats.SessionsThisWeek, result.Profile.Stats.SessionsThisMonth)
	}
}

func TestRecordSessionStreakScenario(t *testing.T) {
	t.Parallel()
	store := &memoryStore{}
	clk := &fakeClock{}
	svc := newService(store, clk, events.NewBus())
	ctx := context.Background()

	for i, d := range []int{1, 2, 3} {
		at := time.Date(2024, 1, d, 18, 0, 0, 0, time.UTC)
		clk.set(at)
		if _, err := svc.RecordSession(ctx, facts(fmt.Sprintf("s%d", i), at, domain.SessionGuided, 10)); err != nil {
			t.Fatalf("record day %d: %v", d, err)
		}
	}
	p, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Stats.CurrentStreak != 3 {
		t.Fatalf("streak after three days = %d", p.Stats.CurrentStreak)
	}

	at := time.Date(2024, 1, 6, 18, 0, 0, 0, time.UTC)
	clk.set(at)
	result, err := svc.RecordSession(ctx, facts("s-gap", at, domain.SessionGuided, 10))
	if err != nil {
		t.Fatalf("record after gap: %v", err)
	}
	if result.Profile.Stats.CurrentStreak != 1 || result.Profile.Stats.LongestStreak != 3 {
		t.Fatalf("after gap: %+v", result.Profile.Stats)
	}
}

func TestRecordSessionIgnoresRepeatedID(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	svc := newService(store, &fakeClock{now: at}, events.NewBus())
	ctx := context.Background()

	if _, err := svc.RecordSession(ctx, facts("s1", at, domain.SessionSound, 20)); err != nil {
		t.Fatalf("first record: %v", err)
	}
	again, err := svc.RecordSession(ctx, facts("s1", at, domain.SessionSound, 20))
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if !again.Duplicate || again.Profile.Stats.TotalSessions != 1 || again.Profile.XP != 16 {
		t.Fatalf("duplicate was counted: %+v", again)
	}
}

func TestConcurrentWritersDoNotLoseUpdates(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	svc := newService(store, &fakeClock{now: at}, events.NewBus())
	ctx := context.Background()

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := svc.RecordSession(ctx, facts(fmt.Sprintf("s%d", i), at, domain.SessionBreathwork, 10))
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_, err := svc.AddXP(ctx, 1, "bonus")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("writer failed: %v", err)
		}
	}
	p, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Stats.TotalSessions != writers || p.XP != writers*10+writers {
		t.Fatalf("lost updates: sessions=%d xp=%d", p.Stats.TotalSessions, p.XP)
	}
}

func TestLevelUpPublishesEvent(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	bus := events.NewBus()
	got := []events.Event{}
	bus.Subscribe(func(e events.Event) { got = append(got, e) }, events.KindLevelUp)
	svc := newService(&memoryStore{}, &fakeClock{now: at}, bus)

	p, err := svc.AddXP(context.Background(), 99, "bonus")
	if err != nil || p.Level != 1 {
		t.Fatalf("add xp: level=%d err=%v", p.Level, err)
	}
	if len(got) != 0 {
		t.Fatalf("no level up expected yet")
	}
	result, err := svc.RecordSession(context.Background(), facts("s1", at, domain.SessionBreathwork, 10))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if result.Profile.Level != 2 || len(got) != 1 || got[0].Data["level"] != 2 || got[0].Data["levelName"] != "Initiate" {
		t.Fatalf("expected one level-up event to 2, got %+v", got)
	}
}

func TestPreferencesAndFavorites(t *testing.T) {
	t.Parallel()
	svc := newService(&memoryStore{}, &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}, events.NewBus())
	ctx := context.Background()

	p, err := svc.UpdatePreference(ctx, "theme", json.RawMessage(`"dark"`))
	if err != nil || p.Preferences.Theme != "dark" {
		t.Fatalf("update preference: %v %+v", err, p.Preferences)
	}
	p, err = svc.AddFavorite(ctx, domain.FavoriteBreathPatterns, "box")
	if err != nil || len(p.Preferences.FavoriteBreathPatterns) != 1 {
		t.Fatalf("add favorite: %v %+v", err, p.Preferences)
	}
	p, err = svc.RemoveFavorite(ctx, domain.FavoriteBreathPatterns, "box")
	if err != nil || len(p.Preferences.FavoriteBreathPatterns) != 0 {
		t.Fatalf("remove favorite: %v %+v", err, p.Preferences)
	}
}

func TestResetKeepsIdentity(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	svc := service.NewProfileService(service.Deps{
		Clock: &fakeClock{now: at}, Location: time.UTC, Store: store, Sessions: store,
		Identity: fakeIdentity{id: "user-42"},
	})
	ctx := context.Background()
	p, err := svc.Login(ctx)
	if err != nil || p.UserID != "user-42" {
		t.Fatalf("login: %v %+v", err, p)
	}
	if _, err := svc.RecordSession(ctx, facts("s1", at, domain.SessionSound, 10)); err != nil {
		t.Fatalf("record: %v", err)
	}
	p, err = svc.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if p.UserID != "user-42" || p.XP != 0 || p.Stats.TotalSessions != 0 {
		t.Fatalf("reset profile: %+v", p)
	}
}

func TestLoginFailureStaysLocal(t *testing.T) {
	t.Parallel()
	store := &memoryStore{}
	svc := service.NewProfileService(service.Deps{
		Clock: &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}, Location: time.UTC, Store: store,
		Identity: fakeIdentity{err: errors.New("offline")},
	})
	p, err := svc.Login(context.Background())
	if err != nil {
		t.Fatalf("login failure must not surface: %v", err)
	}
	if p.UserID != "" || p.ID != domain.LocalID {
		t.Fatalf("unexpected profile: %+v", p)
	}
}
