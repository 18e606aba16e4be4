package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/finance"
	importservice "github.com/FACorreiaa/pocket-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/insights"
	trackingrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/tracking/repository"
	trackingservice "github.com/FACorreiaa/pocket-ledger/internal/domain/tracking/service"
	txrepo "github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/repository"
	txservice "github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/service"
	"github.com/FACorreiaa/pocket-ledger/pkg/config"
	"github.com/FACorreiaa/pocket-ledger/pkg/cron"
	"github.com/FACorreiaa/pocket-ledger/pkg/db"
	"github.com/FACorreiaa/pocket-ledger/pkg/notify"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	TransactionsRepo   txrepo.Repository
	CategorizationRepo categorization.Repository
	TrackingRepo       trackingrepo.Repository

	// Services
	CategorizationService *categorization.Service
	Resolver              *categorization.Resolver
	Parser                *finance.MessageParser
	CaptureService        *finance.CaptureService
	ImportService         *importservice.ImportService
	TransactionsService   *txservice.Service
	TrackingService       *trackingservice.Service
	InsightsService       *insights.Service
	Notifier              *notify.Service
	Scheduler             *cron.Scheduler
	Reports               storage.Storage
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(ctx); err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("all dependencies initialized successfully")
	return deps, nil
}

// Close releases the database pool.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(ctx); err != nil {
		d.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Debug("database connected and migrations completed")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() {
	d.TransactionsRepo = txrepo.NewPostgresRepository(d.DB.Pool)
	d.CategorizationRepo = categorization.NewPostgresRepository(d.DB.Pool)
	d.TrackingRepo = trackingrepo.NewPostgresRepository(d.DB.Pool)
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	cfg := d.Config

	var categorizer categorization.Categorizer
	if cfg.AIEnabled() {
		gemini, err := categorization.NewGeminiCategorizer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model,
			cfg.Categorization.AIRequestsPerSecond, d.Logger)
		if err != nil {
			return err
		}
		categorizer = gemini
		d.Logger.Debug("AI categorization enabled", "model", cfg.Gemini.Model)
	}

	threshold, err := decimal.NewFromString(cfg.Alerts.BigTicketThreshold)
	if err != nil {
		return fmt.Errorf("invalid BIG_TICKET_THRESHOLD %q: %w", cfg.Alerts.BigTicketThreshold, err)
	}

	reports, err := storage.NewLocalStorage(cfg.Import.ReportDir)
	if err != nil {
		return fmt.Errorf("failed to init report storage: %w", err)
	}
	d.Reports = reports

	d.CategorizationService = categorization.NewService(d.CategorizationRepo, d.Logger)
	d.Resolver = categorization.NewDefaultResolver(categorizer, cfg.Categorization.AITimeout, d.Logger)
	d.Parser = finance.NewMessageParser(cfg.Location)

	d.CaptureService = finance.NewCaptureService(d.Parser, d.CategorizationService, d.Resolver, d.TransactionsRepo, d.Logger).
		WithCurrency(cfg.Alerts.Currency)
	d.ImportService = importservice.NewImportService(d.Parser, d.TransactionsRepo, d.CategorizationService, d.Resolver, d.Logger).
		WithReportStorage(reports)
	d.TransactionsService = txservice.NewService(d.TransactionsRepo, d.CategorizationService, d.Logger)
	d.TrackingService = trackingservice.NewService(d.TrackingRepo, d.TransactionsRepo, d.CategorizationService, d.Logger).
		WithLocation(cfg.Location)
	d.InsightsService = insights.NewService(d.TransactionsRepo, d.CategorizationService, d.Logger).
		WithLocation(cfg.Location).
		WithBigTicketThreshold(threshold).
		WithCurrency(cfg.Alerts.Currency)

	d.Notifier = notify.NewService(cfg.Alerts.WebhookURL, d.Logger)
	d.Scheduler = cron.NewScheduler(d.TrackingService, d.InsightsService, d.Notifier, d.Logger,
		d.TrackingService, d.CategorizationService).
		WithCurrency(cfg.Alerts.Currency)

	return nil
}

// withDeps opens the dependencies for one command and closes them afterwards.
func withDeps(ctx context.Context, fn func(*Dependencies) error) error {
	deps, err := InitDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()
	return fn(deps)
}
