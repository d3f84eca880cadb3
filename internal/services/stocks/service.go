// Package stocks answers read queries over stored end-of-day bars
package stocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/interfaces"
	"github.com/bobmcallan/nsebhav/internal/models"
)

// Compile-time interface check
var _ interfaces.StockService = (*Service)(nil)

// Service implements StockService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewService creates a new stocks service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// LatestSnapshot returns every bar for the most recent stored trade date,
// ordered by symbol. An empty store yields an empty slice.
func (s *Service) LatestSnapshot(ctx context.Context) ([]models.StockBar, error) {
	latest, err := s.storage.StockStore().LatestTradeDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest trade date: %w", err)
	}
	if latest == "" {
		return []models.StockBar{}, nil
	}

	bars, err := s.storage.StockStore().ListByDate(ctx, latest)
	if err != nil {
		return nil, fmt.Errorf("failed to list bars for %s: %w", latest, err)
	}
	return bars, nil
}

// NormalizeSymbol trims and upper-cases a ticker; exchange symbols are
// always upper case.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// History returns all bars for symbol, oldest first. An unknown symbol
// yields an empty slice.
func (s *Service) History(ctx context.Context, symbol string) ([]models.StockBar, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol required: %w", models.ErrInvalidArgument)
	}

	bars, err := s.storage.StockStore().ListBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for %s: %w", symbol, err)
	}
	return bars, nil
}

// IngestStatus returns the ingest log entry for tradeDate, or nil when the
// date was never attempted.
func (s *Service) IngestStatus(ctx context.Context, tradeDate string) (*models.IngestDay, error) {
	if _, err := common.ParseISODate(tradeDate); err != nil {
		return nil, fmt.Errorf("%v: %w", err, models.ErrInvalidArgument)
	}

	day, err := s.storage.IngestLogStore().GetDay(ctx, tradeDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingest status for %s: %w", tradeDate, err)
	}
	return day, nil
}
