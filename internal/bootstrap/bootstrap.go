package bootstrap

import (
	"context"
	"errors"
	"fmt"

	achievementinadapter "sacredsound/internal/modules/achievement/adapter/in"
	achievementoutadapter "sacredsound/internal/modules/achievement/adapter/out"
	achievementservice "sacredsound/internal/modules/achievement/service"
	achievementusecase "sacredsound/internal/modules/achievement/usecase"
	analyticsinadapter "sacredsound/internal/modules/analytics/adapter/in"
	analyticsoutadapter "sacredsound/internal/modules/analytics/adapter/out"
	analyticsservice "sacredsound/internal/modules/analytics/service"
	analyticsusecase "sacredsound/internal/modules/analytics/usecase"
	backupinadapter "sacredsound/internal/modules/backup/adapter/in"
	backupoutadapter "sacredsound/internal/modules/backup/adapter/out"
	backupout "sacredsound/internal/modules/backup/port/out"
	backupservice "sacredsound/internal/modules/backup/service"
	backupusecase "sacredsound/internal/modules/backup/usecase"
	profileinadapter "sacredsound/internal/modules/profile/adapter/in"
	profileoutadapter "sacredsound/internal/modules/profile/adapter/out"
	profileservice "sacredsound/internal/modules/profile/service"
	profileusecase "sacredsound/internal/modules/profile/usecase"
	sessioninadapter "sacredsound/internal/modules/session/adapter/in"
	sessionoutadapter "sacredsound/internal/modules/session/adapter/out"
	sessionservice "sacredsound/internal/modules/session/service"
	sessionusecase "sacredsound/internal/modules/session/usecase"
	syncinadapter "sacredsound/internal/modules/sync/adapter/in"
	syncoutadapter "sacredsound/internal/modules/sync/adapter/out"
	syncservice "sacredsound/internal/modules/sync/service"
	syncusecase "sacredsound/internal/modules/sync/usecase"
	"sacredsound/internal/platform/backend"
	"sacredsound/internal/platform/clock"
	"sacredsound/internal/platform/config"
	"sacredsound/internal/platform/events"
	"sacredsound/internal/platform/id"
	"sacredsound/internal/platform/logger"
)

type App struct {
	ProfileCLI     profileinadapter.CLIHandler
	SessionCLI     sessioninadapter.CLIHandler
	AchievementCLI achievementinadapter.CLIHandler
	AnalyticsCLI   analyticsinadapter.CLIHandler
	BackupCLI      backupinadapter.CLIHandler
	SyncCLI        syncinadapter.CLIHandler

	Log       *logger.Logger
	Events    *events.Bus
	Scheduler *syncinadapter.Scheduler

	closers []func() error
}

// Options lets callers swap the pieces that touch the outside world.
type Options struct {
	Logger *logger.Logger
	Clock  clock.Clock
	Sinks  []events.Sink
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	return NewWithOptions(ctx, cfg, Options{})
}

func NewWithOptions(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	log := opts.Logger
	if log == nil {
		built, err := logger.New(cfg.LogMode)
		if err != nil {
			return nil, err
		}
		log = built
		app.closers = append(app.closers, func() error { log.Sync(); return nil })
	}
	app.Log = log

	clk := opts.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	sinks := append([]events.Sink(nil), opts.Sinks...)
	if cfg.RedisAddr != "" {
		sink, err := events.NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			// Companion processes are optional.
			log.Warn("redis event sink disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			sinks = append(sinks, sink)
			app.closers = append(app.closers, sink.Close)
		}
	}
	bus := events.NewBus(sinks...)
	bus.OnSinkError(func(err error) { log.Warn("event sink delivery failed", "error", err) })
	app.Events = bus

	local, err := syncoutadapter.NewSQLiteLocalStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	app.closers = append(app.closers, local.Close)

	client := backend.New(log, backend.Config{
		BaseURL: cfg.APIBaseURL,
		AppEnv:  cfg.AppEnv,
		Timeout: cfg.APITimeout,
	})
	coord, err := syncservice.NewCoordinator(ctx, log, local, syncoutadapter.NewBackendMirror(client), bus, clk, syncservice.Options{
		MaxAttempts: cfg.MaxSyncAttempt,
		Offline:     cfg.Offline,
	})
	if err != nil {
		return nil, fmt.Errorf("start sync coordinator: %w", err)
	}
	syncUC := syncusecase.NewInteractor(coord)

	profileStore := profileoutadapter.NewSyncedProfileStore(coord)
	profileUC := profileusecase.NewInteractor(profileservice.NewProfileService(profileservice.Deps{
		Log:       log,
		Clock:     clk,
		Location:  loc,
		Store:     profileStore,
		Sessions:  profileStore,
		Identity:  profileoutadapter.NewBackendIdentity(client, syncUC),
		Publisher: bus,
	}))

	// The backend is not probed yet, so this reads the stored profile only.
	profile, err := profileUC.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	client.SetUserID(profile.UserID)
	if !cfg.Offline {
		coord.Probe(ctx)
	}
	if coord.Status(ctx).BackendAvailable {
		if _, err := profileUC.Login(ctx); err != nil {
			log.Warn("startup login failed", "error", err)
		}
	}

	achievementUC := achievementusecase.NewInteractor(achievementservice.NewEvaluator(achievementservice.Deps{
		Log:       log,
		Clock:     clk,
		Location:  loc,
		History:   achievementoutadapter.NewSessionHistory(coord),
		Unlocks:   achievementoutadapter.NewSyncedUnlockStore(coord),
		Profile:   achievementoutadapter.NewProfileBridge(profileUC, profileUC),
		Publisher: bus,
	}))

	sessionStore := sessionoutadapter.NewSyncedSessionStore(coord)
	sessionUC := sessionusecase.NewInteractor(
		log,
		sessionservice.NewSessionService(clk, id.TimeSuffixed{Prefix: "session", Clock: clk}, loc, sessionStore, sessionStore),
		profileUC,
		achievementUC,
		bus,
	)

	analyticsUC := analyticsusecase.NewInteractor(analyticsservice.NewAnalyticsService(
		clk,
		loc,
		analyticsoutadapter.NewSyncedSessionSource(coord),
		analyticsoutadapter.NewProfileFactsSource(profileUC),
	))
	backupSvc := backupservice.NewBackupService(log, clk, coord)
	var archive backupout.Archive
	if cfg.Backup.Bucket != "" {
		s3, err := backupoutadapter.NewS3Archive(ctx, backupoutadapter.S3Config(cfg.Backup))
		if err != nil {
			return nil, fmt.Errorf("open backup archive: %w", err)
		}
		archive = s3
	}
	backupUC := backupusecase.NewInteractor(backupSvc, backupservice.NewArchiveService(log, clk, backupSvc, archive))

	scheduler, err := syncinadapter.NewScheduler(log, syncUC, cfg.ProbeInterval, cfg.DrainInterval)
	if err != nil {
		return nil, err
	}
	app.Scheduler = scheduler

	app.ProfileCLI = profileinadapter.NewCLIHandler(profileUC)
	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.AchievementCLI = achievementinadapter.NewCLIHandler(achievementUC)
	app.AnalyticsCLI = analyticsinadapter.NewCLIHandler(analyticsUC)
	app.BackupCLI = backupinadapter.NewCLIHandler(backupUC)
	app.SyncCLI = syncinadapter.NewCLIHandler(syncUC)
	ok = true
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	if a.Scheduler != nil {
		if err := a.Scheduler.Shutdown(); err != nil {
			errs = append(errs, err)
		}
		a.Scheduler = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
