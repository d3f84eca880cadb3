// Package interfaces defines service contracts for nsebhav
package interfaces

import (
	"context"

	"github.com/bobmcallan/nsebhav/internal/models"
)

// StorageManager coordinates the storage backends
type StorageManager interface {
	StockStore() StockStore
	IngestLogStore() IngestLogStore

	// Lifecycle
	Close() error
}

// StockStore persists StockBar rows keyed by (symbol, tradeDate)
type StockStore interface {
	// UpsertDay writes all bars for tradeDate in one bulk operation,
	// replacing any existing row for the same symbol. Empty input is a no-op.
	UpsertDay(ctx context.Context, tradeDate string, bars []models.StockBar) error

	// DayExists reports whether at least one row exists for tradeDate.
	DayExists(ctx context.Context, tradeDate string) (bool, error)

	// Count returns the total number of stored rows.
	Count(ctx context.Context) (int, error)

	// LatestTradeDate returns the most recent tradeDate, or "" when empty.
	LatestTradeDate(ctx context.Context) (string, error)

	// ListByDate returns every row for tradeDate ordered by symbol.
	ListByDate(ctx context.Context, tradeDate string) ([]models.StockBar, error)

	// ListBySymbol returns every row for symbol ordered by tradeDate ascending.
	ListBySymbol(ctx context.Context, symbol string) ([]models.StockBar, error)
}

// IngestLogStore keeps the last ingestion outcome per trade date
type IngestLogStore interface {
	RecordDay(ctx context.Context, day *models.IngestDay) error

	// GetDay returns nil, nil when the date was never attempted.
	GetDay(ctx context.Context, tradeDate string) (*models.IngestDay, error)
}
