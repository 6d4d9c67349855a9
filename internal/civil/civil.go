// Package civil carries the calendar-date type used everywhere the
// pipeline compares or partitions by day. A Date has no time-of-day and
// is always anchored to UTC, so a document received "2025-03-01" compares
// the same way regardless of the host timezone.
package civil

import (
	"fmt"
	"time"

	"auctionwatch-backend/lib/timezone"
)

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func Of(t time.Time) Date {
	t = t.In(timezone.Location)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func Today() Date {
	return Of(timezone.Now())
}

// Parse reads an ISO calendar date, "2025-03-01".
func Parse(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, timezone.Location)
	if err != nil {
		return Date{}, err
	}
	return Of(t), nil
}

// ParseUS reads the court system's "3/1/2025" form.
func ParseUS(s string) (Date, error) {
	t, err := time.ParseInLocation("1/2/2006", s, timezone.Location)
	if err != nil {
		return Date{}, err
	}
	return Of(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, timezone.Location)
}

func (d Date) AddDays(n int) Date {
	return Of(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}
