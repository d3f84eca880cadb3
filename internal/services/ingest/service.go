// Package ingest loads daily bhavcopies into storage and keeps the
// trailing window of trading days backfilled.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bobmcallan/nsebhav/internal/clients/nse"
	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/interfaces"
	"github.com/bobmcallan/nsebhav/internal/models"
)

// ErrBackfillRunning is returned when a backfill pass is requested while
// another one holds the lock.
var ErrBackfillRunning = errors.New("backfill already running")

// Compile-time interface check
var _ interfaces.IngestService = (*Service)(nil)

// Service implements IngestService
type Service struct {
	storage interfaces.StorageManager
	client  interfaces.BhavcopyClient
	logger  *common.Logger

	target        int
	maxOffset     int
	absentRecheck int
	location      *time.Location
	now           func() time.Time

	// held for the duration of a backfill pass
	mu sync.Mutex
}

// NewService creates a new ingest service
func NewService(storage interfaces.StorageManager, client interfaces.BhavcopyClient, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		storage:       storage,
		client:        client,
		logger:        logger,
		target:        config.Ingest.BackfillDays,
		maxOffset:     config.Ingest.MaxOffset,
		absentRecheck: config.Ingest.AbsentRecheckDays,
		location:      config.Exchange.Location(),
		now:           time.Now,
	}
}

// LastCompleteDay is the day before today in the exchange time zone. The
// current day's file is usually not published until evening.
func (s *Service) LastCompleteDay() time.Time {
	return common.DaysBefore(common.TradingDay(s.now(), s.location), 1)
}

// IngestDay fetches, parses and stores one date. A date that already has
// rows is reported as skipped_existing without touching the network.
// A date with no published file returns an error matching
// models.ErrNotPublished and writes nothing.
func (s *Service) IngestDay(ctx context.Context, date time.Time) (*models.IngestDay, error) {
	tradeDate := common.ISODate(date)

	exists, err := s.storage.StockStore().DayExists(ctx, tradeDate)
	if err != nil {
		return &models.IngestDay{TradeDate: tradeDate, Status: models.IngestStatusFailed, Error: err.Error()}, err
	}
	if exists {
		s.logger.Info().Str("trade_date", tradeDate).Msg("Data already exists, skipping")
		return &models.IngestDay{TradeDate: tradeDate, Status: models.IngestStatusExisting}, nil
	}

	return s.fetchAndStore(ctx, date, tradeDate)
}

func (s *Service) fetchAndStore(ctx context.Context, date time.Time, tradeDate string) (*models.IngestDay, error) {
	day := &models.IngestDay{TradeDate: tradeDate, AttemptedAt: s.now()}

	raw, err := s.client.FetchBhavcopy(ctx, date)
	if err != nil {
		if ctx.Err() != nil {
			return day, err
		}
		if errors.Is(err, models.ErrNotPublished) {
			day.Status = models.IngestStatusNotPublished
		} else {
			day.Status = models.IngestStatusFailed
			day.Error = err.Error()
		}
		s.record(ctx, day)
		return day, err
	}

	bars, stats, err := nse.ParseBhavcopy(raw, tradeDate)
	if err != nil {
		day.Status = models.IngestStatusFailed
		day.Error = err.Error()
		s.record(ctx, day)
		return day, err
	}
	day.Rejected = stats.Rejected

	if stats.Rejected > 0 {
		s.logger.Warn().
			Str("trade_date", tradeDate).
			Int("rejected", stats.Rejected).
			Msg("Rows with unparsable prices were skipped")
	}

	if len(bars) == 0 {
		day.Status = models.IngestStatusEmpty
		s.record(ctx, day)
		s.logger.Info().Str("trade_date", tradeDate).Int("rows", stats.Rows).Msg("No EQ rows in bhavcopy")
		return day, nil
	}

	if err := s.storage.StockStore().UpsertDay(ctx, tradeDate, bars); err != nil {
		day.Status = models.IngestStatusFailed
		day.Error = err.Error()
		s.record(ctx, day)
		return day, err
	}

	day.Status = models.IngestStatusLoaded
	day.Records = len(bars)
	s.record(ctx, day)

	s.logger.Info().
		Str("trade_date", tradeDate).
		Int("records", day.Records).
		Int("filtered", stats.Filtered).
		Msg("Bhavcopy stored")

	return day, nil
}

// record writes the ingest log entry. The log is advisory, so a failure
// here never fails the ingestion itself.
func (s *Service) record(ctx context.Context, day *models.IngestDay) {
	if err := s.storage.IngestLogStore().RecordDay(ctx, day); err != nil {
		s.logger.Warn().Err(err).Str("trade_date", day.TradeDate).Msg("Failed to record ingest outcome")
	}
}

// settledAbsent reports whether the date was confirmed unpublished long
// enough after the fact that it will never appear (weekends, holidays).
func (s *Service) settledAbsent(ctx context.Context, date time.Time, tradeDate string) bool {
	if s.absentRecheck <= 0 {
		return false
	}
	entry, err := s.storage.IngestLogStore().GetDay(ctx, tradeDate)
	if err != nil || entry == nil || entry.Status != models.IngestStatusNotPublished {
		return false
	}
	return entry.AttemptedAt.Sub(date) >= time.Duration(s.absentRecheck)*24*time.Hour
}

// EnsureBackfilled walks backwards from through, one day at a time, until
// the target number of trading days is present or the offset ceiling is
// reached. Days already in storage count toward the target. Failures are
// logged and the walk continues; only context cancellation aborts it.
func (s *Service) EnsureBackfilled(ctx context.Context, through time.Time) (*models.BackfillReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrBackfillRunning
	}
	defer s.mu.Unlock()

	start := time.Now()
	u := through.UTC()
	through = common.CivilDate(u.Year(), u.Month(), u.Day())

	report := &models.BackfillReport{
		Through: common.ISODate(through),
		Target:  s.target,
	}

	s.logger.Info().
		Str("through", report.Through).
		Int("target", s.target).
		Int("max_offset", s.maxOffset).
		Msg("Backfill started")

	for offset := 0; report.Succeeded < s.target && offset < s.maxOffset; offset++ {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}

		date := common.DaysBefore(through, offset)
		tradeDate := common.ISODate(date)
		report.Offsets = offset + 1

		exists, err := s.storage.StockStore().DayExists(ctx, tradeDate)
		if err != nil {
			report.Failed++
			s.logger.Warn().Err(err).Str("trade_date", tradeDate).Msg("Backfill: existence check failed")
			continue
		}
		if exists {
			report.Succeeded++
			report.Existing++
			continue
		}

		if s.settledAbsent(ctx, date, tradeDate) {
			report.NotPublished++
			continue
		}

		day, err := s.fetchAndStore(ctx, date, tradeDate)
		switch {
		case err == nil:
			report.Succeeded++
			if day.Status == models.IngestStatusLoaded {
				report.Loaded++
			}
		case ctx.Err() != nil:
			report.Duration = time.Since(start)
			return report, ctx.Err()
		case errors.Is(err, models.ErrNotPublished):
			report.NotPublished++
			s.logger.Debug().Str("trade_date", tradeDate).Msg("Backfill: no data for date")
		default:
			report.Failed++
			s.logger.Warn().Err(err).Str("trade_date", tradeDate).Msg("Backfill: date failed")
		}
	}

	report.Duration = time.Since(start)

	if !report.Complete() {
		report.HitCeiling = true
		s.logger.Warn().
			Int("succeeded", report.Succeeded).
			Int("target", report.Target).
			Int("offsets", report.Offsets).
			Msg("Backfill stopped at offset ceiling before reaching target")
	}

	s.logger.Info().
		Str("through", report.Through).
		Int("succeeded", report.Succeeded).
		Int("loaded", report.Loaded).
		Int("existing", report.Existing).
		Int("not_published", report.NotPublished).
		Int("failed", report.Failed).
		Dur("elapsed", report.Duration).
		Msg("Backfill complete")

	return report, nil
}

// RunBackfill backfills through LastCompleteDay. It runs on every start and
// on each scheduler tick; days already stored cost one existence check.
func (s *Service) RunBackfill(ctx context.Context) (*models.BackfillReport, error) {
	before, err := s.storage.StockStore().Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count stored rows")
	}

	report, err := s.EnsureBackfilled(ctx, s.LastCompleteDay())
	if err != nil {
		return report, err
	}

	after, err := s.storage.StockStore().Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count stored rows")
	}

	s.logger.Info().Int("rows_before", before).Int("rows_after", after).Msg("Stored rows")
	return report, nil
}
