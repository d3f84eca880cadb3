package common

import (
	"fmt"
	"time"
)

// ISODateLayout is the storage key format for trade dates.
const ISODateLayout = "2006-01-02"

// DateParts are the zero-padded pieces used in bhavcopy file names.
type DateParts struct {
	Day   string // "02"
	Month string // "01"
	Year  int    // 2024
}

// ISODate formats t as YYYY-MM-DD in UTC.
func ISODate(t time.Time) string {
	return t.UTC().Format(ISODateLayout)
}

// ExchangeDateParts returns the day, month and year used in the archive URL.
// Computed in UTC, like ISODate, so both always name the same calendar day.
func ExchangeDateParts(t time.Time) DateParts {
	u := t.UTC()
	return DateParts{
		Day:   fmt.Sprintf("%02d", u.Day()),
		Month: fmt.Sprintf("%02d", int(u.Month())),
		Year:  u.Year(),
	}
}

// CivilDate normalises a calendar day to midnight UTC.
func CivilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TradingDay returns the calendar day of now as seen in the exchange time
// zone, normalised to midnight UTC.
func TradingDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return CivilDate(local.Year(), local.Month(), local.Day())
}

// DaysBefore returns the civil date offset days before d.
func DaysBefore(d time.Time, offset int) time.Time {
	return d.AddDate(0, 0, -offset)
}

// ParseISODate parses a YYYY-MM-DD string into a civil date.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}
