// Package interfaces defines service contracts for nsebhav
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/nsebhav/internal/models"
)

// IngestService loads bhavcopies into storage
type IngestService interface {
	// IngestDay fetches, parses and stores one date. Days that already
	// have data are not fetched again.
	IngestDay(ctx context.Context, date time.Time) (*models.IngestDay, error)

	// EnsureBackfilled walks back from through until the configured number
	// of trading days are present or the offset ceiling is reached.
	EnsureBackfilled(ctx context.Context, through time.Time) (*models.BackfillReport, error)

	// RunBackfill backfills through the last complete trading day.
	RunBackfill(ctx context.Context) (*models.BackfillReport, error)
}

// StockService answers read queries over stored bars
type StockService interface {
	// LatestSnapshot returns every bar for the most recent trade date.
	LatestSnapshot(ctx context.Context) ([]models.StockBar, error)

	// History returns all bars for symbol in ascending trade date order.
	History(ctx context.Context, symbol string) ([]models.StockBar, error)

	// IngestStatus returns the ingestion log entry for a date, or nil.
	IngestStatus(ctx context.Context, tradeDate string) (*models.IngestDay, error)
}
