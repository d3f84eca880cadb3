package app

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/interfaces"
	"github.com/bobmcallan/nsebhav/internal/services/ingest"
)

// startIngestScheduler re-runs the backfill on a fixed interval so each
// newly published day is picked up. A zero interval disables it.
func startIngestScheduler(ctx context.Context, ingestService interfaces.IngestService, logger *common.Logger, interval time.Duration) {
	if interval <= 0 {
		logger.Info().Msg("Ingest scheduler: disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", interval).Msg("Ingest scheduler: started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Ingest scheduler: stopped")
			return
		case <-ticker.C:
			runBackfill(ctx, ingestService, logger, "scheduled")
		}
	}
}

func runBackfill(ctx context.Context, ingestService interfaces.IngestService, logger *common.Logger, trigger string) {
	start := time.Now()

	report, err := ingestService.RunBackfill(ctx)
	switch {
	case errors.Is(err, ingest.ErrBackfillRunning):
		logger.Info().Str("trigger", trigger).Msg("Backfill already running, skipped")
		return
	case errors.Is(err, context.Canceled):
		logger.Info().Str("trigger", trigger).Msg("Backfill cancelled")
		return
	case err != nil:
		logger.Warn().Err(err).Str("trigger", trigger).Msg("Backfill failed")
		return
	}

	logger.Info().
		Str("trigger", trigger).
		Str("through", report.Through).
		Int("succeeded", report.Succeeded).
		Int("loaded", report.Loaded).
		Bool("complete", report.Complete()).
		Dur("elapsed", time.Since(start)).
		Msg("Backfill: complete")
}
