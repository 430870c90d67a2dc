package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"sacredsound/internal/modules/session/domain"
	sessionout "sacredsound/internal/modules/session/port/out"
	"sacredsound/internal/platform/clock"
	apperrors "sacredsound/internal/platform/errors"
	"sacredsound/internal/platform/id"
	"sacredsound/internal/platform/slug"
)

type SessionService struct {
	clock    clock.Clock
	idGen    id.Generator
	location *time.Location
	store    sessionout.SessionStore
	custom   sessionout.CustomSessionStore
}

func NewSessionService(clk clock.Clock, idGen id.Generator, loc *time.Location, store sessionout.SessionStore, custom sessionout.CustomSessionStore) *SessionService {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if idGen == nil {
		idGen = id.TimeSuffixed{Prefix: "session", Clock: clk}
	}
	if loc == nil {
		loc = time.Local
	}
	return &SessionService{clock: clk, idGen: idGen, location: loc, store: store, custom: custom}
}

func (s *SessionService) Location() *time.Location { return s.location }

// Create assigns a fresh id, validates, and persists the session. A zero
// date means "now".
func (s *SessionService) Create(ctx context.Context, session domain.Session) (domain.Session, error) {
	session.ID = s.idGen.New()
	if session.Date == 0 {
		session.Date = s.clock.Now().UnixMilli()
	}
	if err := session.Validate(); err != nil {
		return domain.Session{}, err
	}
	if err := s.store.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// All returns every session, newest first.
func (s *SessionService) All(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

func (s *SessionService) InRange(ctx context.Context, from, to time.Time) ([]domain.Session, error) {
	if to.Before(from) {
		return []domain.Session{}, nil
	}
	sessions, err := s.store.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

// ForDate returns the sessions recorded on the calendar day containing day.
func (s *SessionService) ForDate(ctx context.Context, day time.Time) ([]domain.Session, error) {
	start := clock.StartOfDay(day, s.location)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return s.InRange(ctx, start, end)
}

func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	_, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return s.store.Delete(ctx, sessionID)
}

// SaveCustom stores a template keyed by the slug of its name, so saving the
// same name again updates it in place.
func (s *SessionService) SaveCustom(ctx context.Context, custom domain.CustomSession) (domain.CustomSession, error) {
	custom.Name = strings.TrimSpace(custom.Name)
	if custom.Name == "" {
		return domain.CustomSession{}, fmt.Errorf("%w: custom session name is required", apperrors.ErrInvalidInput)
	}
	custom.ID = slug.Make(custom.Name)
	existing, ok, err := s.custom.GetCustom(ctx, custom.ID)
	if err != nil {
		return domain.CustomSession{}, err
	}
	if ok {
		custom.Created = existing.Created
	} else {
		custom.Created = s.clock.Now().UnixMilli()
	}
	if err := custom.Validate(); err != nil {
		return domain.CustomSession{}, err
	}
	if err := s.custom.SaveCustom(ctx, custom); err != nil {
		return domain.CustomSession{}, fmt.Errorf("save custom session: %w", err)
	}
	return custom, nil
}

func (s *SessionService) ListCustom(ctx context.Context) ([]domain.CustomSession, error) {
	items, err := s.custom.ListCustom(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *SessionService) DeleteCustom(ctx context.Context, customID string) error {
	customID = strings.TrimSpace(customID)
	if customID == "" {
		return fmt.Errorf("%w: custom session id is required", apperrors.ErrInvalidInput)
	}
	_, ok, err := s.custom.GetCustom(ctx, customID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: custom session %s", apperrors.ErrNotFound, customID)
	}
	return s.custom.DeleteCustom(ctx, customID)
}

func sortNewestFirst(sessions []domain.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date == sessions[j].Date {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].Date > sessions[j].Date
	})
}
