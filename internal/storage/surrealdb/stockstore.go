package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/interfaces"
	"github.com/bobmcallan/nsebhav/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// barSelectFields keeps the record id out of query results.
const barSelectFields = "symbol, open, high, low, close, tradeDate"

// StockStore implements interfaces.StockStore using SurrealDB.
type StockStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewStockStore creates a new StockStore.
func NewStockStore(db *surrealdb.DB, logger *common.Logger) *StockStore {
	return &StockStore{db: db, logger: logger}
}

// barID derives the record key from (symbol, tradeDate) so that an upsert of
// the same pair always targets the same record.
func barID(symbol, tradeDate string) string {
	return strings.ReplaceAll(tradeDate, "-", "") + "_" + symbol
}

type countRow struct {
	Total int `json:"total"`
}

func (s *StockStore) UpsertDay(ctx context.Context, tradeDate string, bars []models.StockBar) error {
	if len(bars) == 0 {
		return nil
	}

	// Last write wins for a symbol repeated within one call
	order := make([]string, 0, len(bars))
	bySymbol := make(map[string]models.StockBar, len(bars))
	for _, b := range bars {
		b.TradeDate = tradeDate
		if _, seen := bySymbol[b.Symbol]; !seen {
			order = append(order, b.Symbol)
		}
		bySymbol[b.Symbol] = b
	}

	var sb strings.Builder
	vars := make(map[string]any, len(order)*2)
	sb.WriteString("BEGIN TRANSACTION;\n")
	for i, symbol := range order {
		fmt.Fprintf(&sb, "UPSERT $rid%d CONTENT $bar%d RETURN NONE;\n", i, i)
		vars[fmt.Sprintf("rid%d", i)] = surrealmodels.NewRecordID(stockBarTable, barID(symbol, tradeDate))
		vars[fmt.Sprintf("bar%d", i)] = bySymbol[symbol]
	}
	sb.WriteString("COMMIT TRANSACTION;")

	if _, err := surrealdb.Query[any](ctx, s.db, sb.String(), vars); err != nil {
		return &models.StorageError{Op: "upsert day " + tradeDate, Err: err}
	}

	s.logger.Debug().Str("trade_date", tradeDate).Int("records", len(order)).Msg("Stock bars upserted")
	return nil
}

func (s *StockStore) DayExists(ctx context.Context, tradeDate string) (bool, error) {
	sql := "SELECT count() AS total FROM " + stockBarTable + " WHERE tradeDate = $date GROUP ALL"
	vars := map[string]any{"date": tradeDate}

	n, err := s.count(ctx, sql, vars)
	if err != nil {
		return false, &models.StorageError{Op: "day exists " + tradeDate, Err: err}
	}
	return n > 0, nil
}

func (s *StockStore) Count(ctx context.Context) (int, error) {
	n, err := s.count(ctx, "SELECT count() AS total FROM "+stockBarTable+" GROUP ALL", nil)
	if err != nil {
		return 0, &models.StorageError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *StockStore) count(ctx context.Context, sql string, vars map[string]any) (int, error) {
	results, err := surrealdb.Query[[]countRow](ctx, s.db, sql, vars)
	if err != nil {
		return 0, err
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Total, nil
	}
	return 0, nil
}

func (s *StockStore) LatestTradeDate(ctx context.Context) (string, error) {
	sql := "SELECT tradeDate FROM " + stockBarTable + " ORDER BY tradeDate DESC LIMIT 1"

	type dateRow struct {
		TradeDate string `json:"tradeDate"`
	}

	results, err := surrealdb.Query[[]dateRow](ctx, s.db, sql, nil)
	if err != nil {
		return "", &models.StorageError{Op: "latest trade date", Err: err}
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].TradeDate, nil
	}
	return "", nil
}

func (s *StockStore) ListByDate(ctx context.Context, tradeDate string) ([]models.StockBar, error) {
	sql := "SELECT " + barSelectFields + " FROM " + stockBarTable + " WHERE tradeDate = $date ORDER BY symbol ASC"
	bars, err := s.list(ctx, sql, map[string]any{"date": tradeDate})
	if err != nil {
		return nil, &models.StorageError{Op: "list by date " + tradeDate, Err: err}
	}
	return bars, nil
}

func (s *StockStore) ListBySymbol(ctx context.Context, symbol string) ([]models.StockBar, error) {
	sql := "SELECT " + barSelectFields + " FROM " + stockBarTable + " WHERE symbol = $symbol ORDER BY tradeDate ASC"
	bars, err := s.list(ctx, sql, map[string]any{"symbol": symbol})
	if err != nil {
		return nil, &models.StorageError{Op: "list by symbol " + symbol, Err: err}
	}
	return bars, nil
}

func (s *StockStore) list(ctx context.Context, sql string, vars map[string]any) ([]models.StockBar, error) {
	results, err := surrealdb.Query[[]models.StockBar](ctx, s.db, sql, vars)
	if err != nil {
		return nil, err
	}
	bars := []models.StockBar{}
	if results != nil && len(*results) > 0 {
		bars = append(bars, (*results)[0].Result...)
	}
	return bars, nil
}

// Compile-time check
var _ interfaces.StockStore = (*StockStore)(nil)
