package surrealdb

import (
	"context"
	"strings"
	"time"

	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/interfaces"
	"github.com/bobmcallan/nsebhav/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// IngestLogStore implements interfaces.IngestLogStore using SurrealDB.
// One record per trade date, overwritten by each attempt.
type IngestLogStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewIngestLogStore creates a new IngestLogStore.
func NewIngestLogStore(db *surrealdb.DB, logger *common.Logger) *IngestLogStore {
	return &IngestLogStore{db: db, logger: logger}
}

func ingestID(tradeDate string) string {
	return strings.ReplaceAll(tradeDate, "-", "")
}

func (s *IngestLogStore) RecordDay(ctx context.Context, day *models.IngestDay) error {
	if day.AttemptedAt.IsZero() {
		day.AttemptedAt = time.Now()
	}

	sql := "UPSERT $rid CONTENT $day RETURN NONE"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID(ingestLogTable, ingestID(day.TradeDate)),
		"day": day,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return &models.StorageError{Op: "record ingest day " + day.TradeDate, Err: err}
	}
	return nil
}

func (s *IngestLogStore) GetDay(ctx context.Context, tradeDate string) (*models.IngestDay, error) {
	sql := "SELECT trade_date, status, records, rejected, error, attempted_at FROM $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(ingestLogTable, ingestID(tradeDate))}

	results, err := surrealdb.Query[[]models.IngestDay](ctx, s.db, sql, vars)
	if err != nil {
		return nil, &models.StorageError{Op: "get ingest day " + tradeDate, Err: err}
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		day := (*results)[0].Result[0]
		return &day, nil
	}
	return nil, nil
}

// Compile-time check
var _ interfaces.IngestLogStore = (*IngestLogStore)(nil)
