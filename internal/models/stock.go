// Package models defines data structures for nsebhav
package models

import "time"

// StockBar is one symbol's end-of-day prices for one trade date.
// The (Symbol, TradeDate) pair is unique in storage.
type StockBar struct {
	Symbol    string  `json:"symbol"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	TradeDate string  `json:"tradeDate"` // YYYY-MM-DD, taken from the requested date
}

// IngestStatus is the outcome of one day's ingestion attempt.
type IngestStatus string

const (
	IngestStatusLoaded       IngestStatus = "loaded"
	IngestStatusExisting     IngestStatus = "skipped_existing"
	IngestStatusEmpty        IngestStatus = "empty" // file published, no EQ rows
	IngestStatusNotPublished IngestStatus = "not_published"
	IngestStatusFailed       IngestStatus = "failed"
)

// IngestDay records the last ingestion outcome for a trade date.
type IngestDay struct {
	TradeDate   string       `json:"trade_date"`
	Status      IngestStatus `json:"status"`
	Records     int          `json:"records"`
	Rejected    int          `json:"rejected"`
	Error       string       `json:"error,omitempty"`
	AttemptedAt time.Time    `json:"attempted_at"`
}

// Counted reports whether the day counts toward the backfill target.
func (d *IngestDay) Counted() bool {
	if d == nil {
		return false
	}
	switch d.Status {
	case IngestStatusLoaded, IngestStatusExisting, IngestStatusEmpty:
		return true
	}
	return false
}

// BackfillReport summarises one backfill pass.
type BackfillReport struct {
	Through      string        `json:"through"`
	Target       int           `json:"target"`
	Succeeded    int           `json:"succeeded"`
	Loaded       int           `json:"loaded"`
	Existing     int           `json:"existing"`
	NotPublished int           `json:"not_published"`
	Failed       int           `json:"failed"`
	Offsets      int           `json:"offsets"`
	HitCeiling   bool          `json:"hit_ceiling"`
	Duration     time.Duration `json:"duration"`
}

// Complete reports whether the pass reached its target.
func (r *BackfillReport) Complete() bool {
	return r.Succeeded >= r.Target
}
