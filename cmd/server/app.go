package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/tsunayoshi21/Labeling-app/internal/config"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/logger"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/notify"
	"github.com/tsunayoshi21/Labeling-app/internal/platform/postgres"
	"github.com/tsunayoshi21/Labeling-app/internal/service"
	"github.com/tsunayoshi21/Labeling-app/internal/service/auth"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// application holds the fully wired dependency graph of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	authService *auth.Service
	jwtService  auth.JWTService

	allocator       *service.AllocatorService
	reviewService   *service.ReviewService
	qualityService  *service.QualityService
	transferService *service.TransferService
	statsService    *service.StatsService
	taskService     *service.TaskService
	adminService    *service.AdminService
}

// newApplication loads configuration and constructs every component of
// the server, bottom up: logging, database, stores, services.
func newApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := openDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	reviewerStore := postgres.NewPostgresReviewerStore(db, appLogger)
	workItemStore := postgres.NewPostgresWorkItemStore(db, appLogger)
	assignmentStore := postgres.NewPostgresAssignmentStore(db, appLogger)
	statsStore := postgres.NewPostgresStatsStore(db, appLogger)
	transactor := store.NewDBTransactor(db)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	authService := auth.NewService(reviewerStore, auth.NewBcryptVerifier(), jwtService, appLogger)

	gate := notify.NewGate(
		time.Duration(cfg.Notify.MinIntervalMinutes)*time.Minute,
		time.Duration(cfg.Notify.StaleAfterHours)*time.Hour,
	)
	notifier := notify.NewLogNotifier(gate, appLogger)

	app := &application{
		config:          cfg,
		logger:          appLogger,
		db:              db,
		authService:     authService,
		jwtService:      jwtService,
		allocator:       service.NewAllocatorService(transactor, reviewerStore, workItemStore, assignmentStore, appLogger),
		reviewService:   service.NewReviewService(transactor, workItemStore, assignmentStore, appLogger),
		qualityService:  service.NewQualityService(transactor, reviewerStore, workItemStore, assignmentStore, appLogger),
		transferService: service.NewTransferService(transactor, reviewerStore, assignmentStore, appLogger),
		statsService:    service.NewStatsService(reviewerStore, statsStore, appLogger),
		taskService:     service.NewTaskService(transactor, reviewerStore, assignmentStore, notifier, appLogger),
		adminService: service.NewAdminService(
			transactor,
			reviewerStore,
			workItemStore,
			assignmentStore,
			statsStore,
			auth.NewBcryptHasher(cfg.Auth.BcryptCost),
			appLogger,
		),
	}
	return app, nil
}

// close releases the application's long-lived resources.
func (app *application) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}
