// Package app wires configuration, storage, the archive client and the
// services into one value shared by every command.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/nsebhav/internal/clients/nse"
	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/interfaces"
	"github.com/bobmcallan/nsebhav/internal/services/ingest"
	"github.com/bobmcallan/nsebhav/internal/services/stocks"
	"github.com/bobmcallan/nsebhav/internal/storage/surrealdb"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Storage       interfaces.StorageManager
	NSEClient     interfaces.BhavcopyClient
	IngestService interfaces.IngestService
	StockService  interfaces.StockService
	StartupTime   time.Time

	backfillCancel  context.CancelFunc
	schedulerCancel context.CancelFunc
	done            chan struct{}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: explicit path, NSEBHAV_CONFIG,
// next to the binary, then config/ for development.
func resolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("NSEBHAV_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "nsebhav.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/nsebhav.toml"
		}
	}
	return configPath
}

// NewApp loads configuration, connects to storage and builds the services.
// Failing to reach the database is returned as an error; callers treat it
// as fatal.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealdb.NewManager(ctx, logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return newApp(config, logger, storageManager, startupStart), nil
}

// newApp builds the client and services over an open storage manager.
func newApp(config *common.Config, logger *common.Logger, storageManager interfaces.StorageManager, startupStart time.Time) *App {
	client := nse.NewClient(
		nse.WithBaseURL(config.Exchange.BaseURL),
		nse.WithUserAgent(config.Exchange.UserAgent),
		nse.WithTimeout(config.Exchange.GetTimeout()),
		nse.WithRateLimit(config.Exchange.RateLimit),
		nse.WithLogger(logger),
	)

	a := &App{
		Config:        config,
		Logger:        logger,
		Storage:       storageManager,
		NSEClient:     client,
		IngestService: ingest.NewService(storageManager, client, config, logger),
		StockService:  stocks.NewService(storageManager, logger),
		StartupTime:   startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a
}

// Close releases all resources held by the App.
// Shutdown order: cancel background work, wait for it, close storage.
func (a *App) Close() {
	if a.backfillCancel != nil {
		a.backfillCancel()
		a.backfillCancel = nil
	}
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.done != nil {
		select {
		case <-a.done:
		case <-time.After(10 * time.Second):
			a.Logger.Warn().Msg("Background ingestion did not stop in time")
		}
		a.done = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartBackground launches the startup backfill followed by the periodic
// scheduler. The HTTP API is usable while both run.
func (a *App) StartBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	a.done = make(chan struct{})

	go func() {
		defer close(a.done)
		if a.Config.Ingest.StartupBackfill {
			runBackfill(ctx, a.IngestService, a.Logger, "startup")
		}
		startIngestScheduler(ctx, a.IngestService, a.Logger, a.Config.Ingest.GetScheduleInterval())
	}()
}

// RunBackfill runs one backfill pass in the foreground, through the given
// day or the last complete trading day when through is zero.
func (a *App) RunBackfill(ctx context.Context, through time.Time) error {
	ctx, cancel := context.WithCancel(ctx)
	a.backfillCancel = cancel
	defer cancel()

	if through.IsZero() {
		_, err := a.IngestService.RunBackfill(ctx)
		return err
	}
	_, err := a.IngestService.EnsureBackfilled(ctx, through)
	return err
}
