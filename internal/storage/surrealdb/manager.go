package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

const (
	stockBarTable  = "stock_bar"
	ingestLogTable = "ingest_log"
)

// schema is applied on every start; each statement is idempotent.
var schema = []string{
	"DEFINE TABLE IF NOT EXISTS " + stockBarTable + " SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS " + ingestLogTable + " SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS stock_bar_symbol_date ON TABLE " + stockBarTable + " FIELDS symbol, tradeDate UNIQUE",
	"DEFINE INDEX IF NOT EXISTS stock_bar_date ON TABLE " + stockBarTable + " FIELDS tradeDate",
}

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	stockStore     *StockStore
	ingestLogStore *IngestLogStore
}

// NewManager connects to SurrealDB, selects the namespace/database and
// applies the schema.
func NewManager(ctx context.Context, logger *common.Logger, config *common.Config) (*Manager, error) {
	sc, err := config.Storage.Resolve()
	if err != nil {
		return nil, err
	}

	db, err := surrealdb.New(sc.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if sc.Username != "" {
		if _, err := db.SignIn(ctx, map[string]interface{}{
			"user": sc.Username,
			"pass": sc.Password,
		}); err != nil {
			db.Close(context.Background())
			return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
		}
	}

	if err := db.Use(ctx, sc.Namespace, sc.Database); err != nil {
		db.Close(context.Background())
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close(context.Background())
		return nil, err
	}

	m := &Manager{
		db:             db,
		logger:         logger,
		stockStore:     NewStockStore(db, logger),
		ingestLogStore: NewIngestLogStore(db, logger),
	}

	logger.Info().
		Str("address", sc.URL).
		Str("namespace", sc.Namespace).
		Str("database", sc.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func applySchema(ctx context.Context, db *surrealdb.DB) error {
	for _, sql := range schema {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return fmt.Errorf("failed to apply schema %q: %w", sql, err)
		}
	}
	return nil
}

func (m *Manager) StockStore() interfaces.StockStore {
	return m.stockStore
}

func (m *Manager) IngestLogStore() interfaces.IngestLogStore {
	return m.ingestLogStore
}

func (m *Manager) Close() error {
	return m.db.Close(context.Background())
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
