package aggregate

import (
	"sort"
	"time"

	"github.com/araddon/dateparse"
	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
)

// ParseDay parses a YYYY-MM-DD date, falling back to lenient parsing.
func ParseDay(value string) (time.Time, error) {
	if t, err := time.Parse(usagedomain.DateLayout, value); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// WeekOf returns the Monday of date's week as YYYY-MM-DD.
func WeekOf(date string) (string, bool) {
	t, err := ParseDay(date)
	if err != nil {
		return "", false
	}
	return WeekStart(t).Format(usagedomain.DateLayout), true
}

type weekKey struct {
	key  string
	week string
}

// groupWeekly buckets rows by (key, week) and folds each bucket with add.
// Rows whose date cannot be parsed are dropped. Output is ordered by key then week.
func groupWeekly[R any, W any](
	rows []R,
	key func(R) string,
	date func(R) string,
	init func(key, week string) W,
	add func(*W, R),
) []W {
	buckets := map[weekKey]*W{}
	order := make([]weekKey, 0)

	for _, row := range rows {
		week, ok := WeekOf(date(row))
		if !ok {
			continue
		}
		k := weekKey{key: key(row), week: week}
		bucket, exists := buckets[k]
		if !exists {
			w := init(k.key, k.week)
			bucket = &w
			buckets[k] = bucket
			order = append(order, k)
		}
		add(bucket, row)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].key != order[j].key {
			return order[i].key < order[j].key
		}
		return order[i].week < order[j].week
	})

	out := make([]W, 0, len(order))
	for _, k := range order {
		out = append(out, *buckets[k])
	}
	return out
}
