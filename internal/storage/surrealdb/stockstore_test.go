package surrealdb

import (
	"context"
	"testing"

	"github.com/bobmcallan/nsebhav/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(symbol, date string, close float64) models.StockBar {
	return models.StockBar{
		Symbol:    symbol,
		Open:      close - 1,
		High:      close + 2,
		Low:       close - 3,
		Close:     close,
		TradeDate: date,
	}
}

func TestUpsertDay_EmptyIsNoop(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertDay(ctx, "2024-01-03", nil))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsertDay_WritesAllSymbols(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	bars := []models.StockBar{bar("INFY", "2024-01-03", 1500), bar("TCS", "2024-01-03", 3700), bar("M&M", "2024-01-03", 1650)}
	require.NoError(t, store.UpsertDay(ctx, "2024-01-03", bars))

	got, err := store.ListByDate(ctx, "2024-01-03")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "INFY", got[0].Symbol)
	assert.Equal(t, "M&M", got[1].Symbol)
	assert.Equal(t, "TCS", got[2].Symbol)
	assert.Equal(t, bars[0], got[0])
}

func TestUpsertDay_Idempotent(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	bars := []models.StockBar{bar("INFY", "2024-01-03", 1500), bar("TCS", "2024-01-03", 3700)}
	require.NoError(t, store.UpsertDay(ctx, "2024-01-03", bars))
	before, err := store.ListByDate(ctx, "2024-01-03")
	require.NoError(t, err)

	require.NoError(t, store.UpsertDay(ctx, "2024-01-03", bars))
	after, err := store.ListByDate(ctx, "2024-01-03")
	require.NoError(t, err)

	assert.Equal(t, before, after)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpsertDay_LaterWriteWins(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertDay(ctx, "2024-01-03", []models.StockBar{bar("INFY", "2024-01-03", 1500)}))
	require.NoError(t, store.UpsertDay(ctx, "2024-01-03", []models.StockBar{bar("INFY", "2024-01-03", 1525)}))

	got, err := store.ListBySymbol(ctx, "INFY")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1525.0, got[0].Close)
	assert.Equal(t, 1524.0, got[0].Open)
}

func TestUpsertDay_DuplicateSymbolInBatch(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertDay(ctx, "2024-01-03", []models.StockBar{
		bar("INFY", "2024-01-03", 1500),
		bar("INFY", "2024-01-03", 1510),
	}))

	got, err := store.ListBySymbol(ctx, "INFY")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1510.0, got[0].Close)
}

func TestUpsertDay_StampsTradeDate(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	require.NoError(t, store.UpsertDay(ctx, "2024-01-04", []models.StockBar{bar("INFY", "1999-01-01", 1500)}))

	got, err := store.ListBySymbol(ctx, "INFY")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-04", got[0].TradeDate)
}

func TestDayExists(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	exists, err := store.DayExists(ctx, "2024-01-03")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.UpsertDay(ctx, "2024-01-03", []models.StockBar{bar("INFY", "2024-01-03", 1500)}))

	exists, err = store.DayExists(ctx, "2024-01-03")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.DayExists(ctx, "2024-01-04")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLatestTradeDate(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	latest, err := store.LatestTradeDate(ctx)
	require.NoError(t, err)
	assert.Empty(t, latest)

	for _, d := range []string{"2024-01-02", "2024-01-03", "2024-01-01"} {
		require.NoError(t, store.UpsertDay(ctx, d, []models.StockBar{bar("INFY", d, 1500), bar("TCS", d, 3700)}))
	}

	latest, err = store.LatestTradeDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", latest)

	got, err := store.ListByDate(ctx, latest)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, b := range got {
		assert.Equal(t, "2024-01-03", b.TradeDate)
	}
}

func TestListBySymbol_AscendingDates(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())
	ctx := context.Background()

	for _, d := range []string{"2024-01-03", "2024-01-01", "2024-01-02"} {
		require.NoError(t, store.UpsertDay(ctx, d, []models.StockBar{bar("INFY", d, 1500), bar("TCS", d, 3700)}))
	}

	got, err := store.ListBySymbol(ctx, "INFY")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].TradeDate, got[i].TradeDate)
	}
	for _, b := range got {
		assert.Equal(t, "INFY", b.Symbol)
	}
}

func TestListBySymbol_Unknown(t *testing.T) {
	store := NewStockStore(testDB(t), testLogger())

	got, err := store.ListBySymbol(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
