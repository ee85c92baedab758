// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Kalfadda/indiecraft/internal/api"
	"github.com/Kalfadda/indiecraft/internal/api/handlers"
	"github.com/Kalfadda/indiecraft/internal/api/middleware"
	"github.com/Kalfadda/indiecraft/internal/ics"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/repository/postgres"
	"github.com/Kalfadda/indiecraft/internal/repository/redis"
	"github.com/Kalfadda/indiecraft/internal/scheduler"
	"github.com/Kalfadda/indiecraft/internal/services/asset"
	"github.com/Kalfadda/indiecraft/internal/services/auth"
	"github.com/Kalfadda/indiecraft/internal/services/board"
	"github.com/Kalfadda/indiecraft/internal/services/feed"
	"github.com/Kalfadda/indiecraft/internal/services/guide"
	"github.com/Kalfadda/indiecraft/internal/services/request"
	"github.com/Kalfadda/indiecraft/internal/services/schedule"
	"github.com/Kalfadda/indiecraft/internal/services/user"
)

// BuildInfo carries version metadata injected at build time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Application owns every long-lived component of the server process.
type Application struct {
	Config *Config
	Build  BuildInfo
	Logger *logger.Logger

	DB       *postgres.DB
	Redis    *redis.Client
	Sessions *redis.SessionStore

	server *api.Server
	sched  *scheduler.Scheduler
}

// New creates the application from validated configuration. Nothing is
// connected yet; Run does the wiring.
func New(cfg *Config, build BuildInfo) *Application {
	return &Application{Config: cfg, Build: build}
}

// Run wires everything together and serves until ctx is cancelled: logger,
// database (with migrations), Redis, repositories, services, HTTP server, and
// the background job scheduler. Shutdown is graceful and in reverse order.
func (app *Application) Run(ctx context.Context) error {
	log, err := logger.New(app.Config.Logging.Level, app.Config.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	app.Logger = log
	defer func() { _ = log.Sync() }()

	log.Info("starting indiecraft",
		"version", app.Build.Version,
		"commit", app.Build.Commit,
	)

	// Database.
	db, err := postgres.New(ctx, app.Config.Database.URL, postgres.Options{
		MaxOpenConns:    app.Config.Database.MaxOpenConns,
		MaxIdleConns:    app.Config.Database.MaxIdleConns,
		ConnMaxLifetime: app.Config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: app.Config.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	app.DB = db
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Redis.
	redisClient, err := redis.New(ctx, app.Config.Redis.URL, redis.Options{
		PoolSize:     app.Config.Redis.PoolSize,
		MinIdleConns: app.Config.Redis.MinIdleConns,
		DialTimeout:  app.Config.Redis.DialTimeout,
		ReadTimeout:  app.Config.Redis.ReadTimeout,
		WriteTimeout: app.Config.Redis.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	app.Redis = redisClient
	defer func() { _ = redisClient.Close() }()

	app.Sessions = redis.NewSessionStore(redisClient, app.Config.Auth.SessionTTL)

	// Repositories.
	userRepo := postgres.NewUserRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	assetRepo := postgres.NewAssetRepository(db)
	boardRepo := postgres.NewBoardRepository(db)
	requestRepo := postgres.NewRequestRepository(db)
	guideRepo := postgres.NewGuideRepository(db)

	// Services.
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		Secret:          app.Config.Auth.JWTSecret,
		Issuer:          app.Config.Auth.Issuer,
		AccessTokenTTL:  app.Config.Auth.AccessTokenTTL,
		RefreshTokenTTL: app.Config.Auth.RefreshTokenTTL,
	})
	authService := auth.NewService(userRepo, app.Sessions, jwtSvc, log)
	userService := user.NewService(userRepo, log)

	timezone, err := time.LoadLocation(app.Config.Calendar.Timezone)
	if err != nil {
		return fmt.Errorf("load calendar timezone: %w", err)
	}
	scheduleService := schedule.NewService(scheduleRepo, ics.NewBuilder(), timezone, log).
		WithExportCache(redis.NewExportCache(redisClient))
	feedService := feed.NewService(scheduleRepo, nil, log)
	assetService := asset.NewService(assetRepo, log)
	boardService := board.NewService(boardRepo, log)
	requestService := request.NewService(requestRepo, assetService, log)
	guideService := guide.NewService(guideRepo, log)

	if err := app.bootstrapAdminUser(ctx, userRepo); err != nil {
		return err
	}

	// HTTP server.
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = app.Config.Server.Host
	serverConfig.Port = app.Config.Server.Port
	serverConfig.TLSCert = app.Config.Server.TLSCert
	serverConfig.TLSKey = app.Config.Server.TLSKey
	serverConfig.ReadTimeout = app.Config.Server.ReadTimeout
	serverConfig.WriteTimeout = app.Config.Server.WriteTimeout
	serverConfig.IdleTimeout = app.Config.Server.IdleTimeout
	serverConfig.ShutdownTimeout = app.Config.Server.ShutdownTimeout
	serverConfig.Version = app.Build.Version
	serverConfig.Commit = app.Build.Commit
	serverConfig.BuildTime = app.Build.BuildTime
	serverConfig.Logger = log
	serverConfig.RouterConfig = api.RouterConfig{
		JWTSecret:          app.Config.Auth.JWTSecret,
		CORSConfig:         middleware.DefaultCORSConfig(),
		RateLimitPerMinute: app.Config.Server.RateLimit,
		RequestTimeout:     app.Config.Server.RequestTimeout,
		TokenValidator:     app.sessionValidator(),
	}

	app.server = api.NewServer(serverConfig)
	h := app.server.Handlers()
	h.Auth = handlers.NewAuthHandler(authService, log)
	h.User = handlers.NewUserHandler(userService, log)
	h.Schedule = handlers.NewScheduleHandler(scheduleService, feedService, log)
	h.Asset = handlers.NewAssetHandler(assetService, log)
	h.Board = handlers.NewBoardHandler(boardService, log)
	h.Request = handlers.NewRequestHandler(requestService, log)
	h.Guide = handlers.NewGuideHandler(guideService, log)

	app.server.RegisterDatabaseHealth(db.HealthCheck)
	app.server.RegisterRedisHealth(redisClient.HealthCheck)
	app.server.Setup()

	// Background jobs.
	app.sched = scheduler.New(scheduler.DefaultConfig(), log)
	if err := app.registerJobs(feedService, scheduleRepo); err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}
	app.sched.Start(ctx)

	serverErr := app.server.StartAsync()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	return app.shutdown()
}

// registerJobs wires the periodic jobs onto the scheduler.
func (app *Application) registerJobs(feedService *feed.Service, scheduleRepo *postgres.ScheduleRepository) error {
	jobs := []scheduler.Job{
		scheduler.NewFeedRefreshJob(feedService, app.Config.Jobs.FeedRefresh),
		scheduler.NewSessionPruneJob(app.Sessions, app.Config.Jobs.SessionPrune, app.Logger),
		scheduler.NewDeadlineDigestJob(scheduleRepo, app.Config.Jobs.DeadlineDigest, app.Logger),
	}
	for _, job := range jobs {
		if err := app.sched.Register(job); err != nil {
			return fmt.Errorf("job %s: %w", job.Name(), err)
		}
	}
	return nil
}

// sessionValidator returns the middleware hook that rejects tokens whose
// server-side session has been revoked.
func (app *Application) sessionValidator() middleware.TokenValidatorFunc {
	return func(ctx context.Context, _ string, claims *middleware.UserClaims) error {
		if claims.SessionID == "" {
			return nil
		}
		if _, err := app.Sessions.Get(ctx, claims.SessionID); err != nil {
			return fmt.Errorf("session check: %w", err)
		}
		return nil
	}
}

// shutdown stops the scheduler and the HTTP server, each bounded by the
// configured shutdown timeout.
func (app *Application) shutdown() error {
	timeout := app.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var firstErr error
	if app.sched != nil {
		if err := app.sched.Stop(ctx); err != nil {
			app.Logger.Error("scheduler shutdown", "error", err)
			firstErr = err
		}
	}
	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			app.Logger.Error("server shutdown", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	app.Logger.Info("indiecraft stopped")
	return firstErr
}

// Router exposes the HTTP handler, used by tests that run the app in-process.
func (app *Application) Router() http.Handler {
	if app.server == nil {
		return nil
	}
	return app.server.Router()
}
