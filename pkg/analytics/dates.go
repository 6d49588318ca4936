package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/chatdeck/pkg/backend"
)

// DefaultDays is the window used when no range is given.
const DefaultDays = 7

// LastDays returns the range covering the n calendar days ending on now's
// day, inclusive. n below one is treated as one.
func LastDays(n int, now time.Time) backend.DateRange {
	n = max(n, 1)
	end := startOfDay(now)
	return backend.DateRange{
		Start: end.AddDate(0, 0, -(n - 1)),
		End:   end,
	}
}

// ParseDateRange parses YYYY-MM-DD bounds. A missing bound defaults from
// the other one (or from now) so that the range spans days days.
func ParseDateRange(from, to string, days int, now time.Time) (backend.DateRange, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	days = max(days, 1)

	if from == "" && to == "" {
		return LastDays(days, now), nil
	}

	var dates backend.DateRange
	var err error

	if from != "" {
		dates.Start, err = parseDate(from)
		if err != nil {
			return backend.DateRange{}, fmt.Errorf("invalid from date: %w", err)
		}
	}
	if to != "" {
		dates.End, err = parseDate(to)
		if err != nil {
			return backend.DateRange{}, fmt.Errorf("invalid to date: %w", err)
		}
	}

	switch {
	case from == "":
		dates.Start = dates.End.AddDate(0, 0, -(days - 1))
	case to == "":
		dates.End = startOfDay(now)
		if dates.End.Before(dates.Start) {
			dates.End = dates.Start
		}
	}

	if err := dates.Validate(); err != nil {
		return backend.DateRange{}, err
	}

	return dates, nil
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(backend.DateLayout, value, time.Local)
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
