// Package app wires configuration, logging, storage, the identity
// provider clients, and the HTTP surface into a runnable service.
package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Arcaz22/Productivity-Tracker/internal/auth"
	"github.com/Arcaz22/Productivity-Tracker/internal/config"
	"github.com/Arcaz22/Productivity-Tracker/internal/database"
	"github.com/Arcaz22/Productivity-Tracker/internal/keycloak"
	"github.com/Arcaz22/Productivity-Tracker/internal/logger"
	"github.com/Arcaz22/Productivity-Tracker/internal/master"
	"github.com/Arcaz22/Productivity-Tracker/internal/observability"
	"github.com/Arcaz22/Productivity-Tracker/internal/server"
	"github.com/Arcaz22/Productivity-Tracker/internal/server/middleware"
	"github.com/Arcaz22/Productivity-Tracker/internal/user"
)

// App holds the assembled service.
type App struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
	srv *server.Server

	shutdownTelemetry observability.ShutdownFunc
}

// New loads configuration and assembles the service. The context bounds
// startup work: database connection retries and the telemetry exporter
// handshake.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Logging)
	base := logger.GetGlobalLogger()
	log := base.WithComponent("app")
	server.SetDebugMode(cfg.App.Debug)

	shutdownTelemetry, err := observability.Init(ctx, cfg.Telemetry, log)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database, base)
	if err != nil {
		_ = shutdownTelemetry(ctx)
		return nil, err
	}
	if err := db.WithContext(ctx).AutoMigrate(&master.ActivityCategory{}, &master.PerformanceStandard{}); err != nil {
		_ = shutdownTelemetry(ctx)
		return nil, fmt.Errorf("migrate reference tables: %w", err)
	}

	clients := keycloak.NewClients(cfg.Keycloak, base)
	verifier := auth.NewVerifier(clients.OpenID(), auth.VerifierConfig{}, base)

	authService := auth.NewService(clients, base)
	userService := user.NewService(clients, base)
	categoryService := master.NewCategoryService(db, base)
	standardService := master.NewStandardService(db, base)

	master.RegisterValidations()

	srv := server.New(cfg.Server, base)

	engine := srv.Engine()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.RequestLogger(base),
		middleware.Metrics(),
		middleware.CORS(cfg.CORS),
	)

	registerRoutes(engine, routeDeps{
		verifier: verifier,
		auth:     auth.NewHandler(authService),
		user:     user.NewHandler(userService),
		master:   master.NewHandler(categoryService, standardService),
		appName:  cfg.App.Name,
	})

	log.Info("Application assembled", map[string]interface{}{
		"service": cfg.App.Name,
		"debug":   cfg.App.Debug,
	})

	return &App{
		cfg:               cfg,
		log:               log,
		db:                db,
		srv:               srv,
		shutdownTelemetry: shutdownTelemetry,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled,
// then shuts everything down in reverse order.
func (a *App) Run(ctx context.Context) error {
	if err := a.srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.log.Info("Shutdown signal received")

	// Use a fresh context: the signal context is already canceled.
	shutdownCtx := context.Background()

	var firstErr error
	if err := a.srv.Stop(shutdownCtx); err != nil {
		firstErr = err
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.shutdownTelemetry(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}

	a.log.Info("Shutdown complete")
	return firstErr
}
