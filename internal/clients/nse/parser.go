package nse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bobmcallan/nsebhav/internal/models"
)

// EquitySeries is the series code for regular equity trades.
const EquitySeries = "EQ"

// Column names read from the full bhavcopy header.
const (
	colSymbol = "SYMBOL"
	colSeries = "SERIES"
	colOpen   = "OPEN_PRICE"
	colHigh   = "HIGH_PRICE"
	colLow    = "LOW_PRICE"
	colClose  = "CLOSE_PRICE"
)

var requiredColumns = []string{colSymbol, colSeries, colOpen, colHigh, colLow, colClose}

// ParseStats counts what happened to the data rows of one file.
type ParseStats struct {
	Rows     int // data rows read
	Kept     int // EQ rows converted to bars
	Filtered int // rows of other series
	Rejected int // EQ rows with a missing symbol or unparsable price
}

// ParseBhavcopy reads raw CSV with a header row and returns one StockBar per
// EQ row, stamped with tradeDate. Rows whose prices do not parse are
// rejected rather than stored as NaN. No matching rows is not an error.
func ParseBhavcopy(raw string, tradeDate string) ([]models.StockBar, ParseStats, error) {
	var stats ParseStats

	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, stats, &models.ParseError{Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, stats, &models.ParseError{Line: 1, Err: err}
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		idx[strings.ToUpper(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, stats, &models.ParseError{Line: 1, Err: fmt.Errorf("missing column %s", col)}
		}
	}

	bars := make([]models.StockBar, 0, 2048)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, stats, &models.ParseError{Line: csvErr.Line, Err: csvErr.Err}
			}
			return nil, stats, &models.ParseError{Err: err}
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		stats.Rows++

		if field(record, idx[colSeries]) != EquitySeries {
			stats.Filtered++
			continue
		}

		bar, ok := toBar(record, idx, tradeDate)
		if !ok {
			stats.Rejected++
			continue
		}
		bars = append(bars, bar)
		stats.Kept++
	}

	return bars, stats, nil
}

func toBar(record []string, idx map[string]int, tradeDate string) (models.StockBar, bool) {
	symbol := field(record, idx[colSymbol])
	if symbol == "" {
		return models.StockBar{}, false
	}

	var prices [4]float64
	for i, col := range []string{colOpen, colHigh, colLow, colClose} {
		v, err := parsePrice(field(record, idx[col]))
		if err != nil {
			return models.StockBar{}, false
		}
		prices[i] = v
	}

	return models.StockBar{
		Symbol:    symbol,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		TradeDate: tradeDate,
	}, true
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parsePrice accepts plain decimals and thousands separators, and refuses
// blanks, "-" placeholders, NaN and infinities.
func parsePrice(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return 0, errors.New("empty price")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("price out of range: %s", s)
	}
	return v, nil
}
