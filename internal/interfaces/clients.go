// Package interfaces defines service contracts for nsebhav
package interfaces

import (
	"context"
	"time"
)

// BhavcopyClient fetches the exchange's daily trade-price file
type BhavcopyClient interface {
	// FetchBhavcopy returns the raw CSV published for the given date.
	// A missing file yields an error matching models.ErrNotPublished.
	FetchBhavcopy(ctx context.Context, date time.Time) (string, error)
}
