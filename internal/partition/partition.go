// Package partition provides epoch-offset arithmetic for time-partitioned
// tables. A day partition is the number of days since 1970-01-01, a month
// partition the number of months since January 1970. Warehouse tables keyed
// by these identifiers are queried one partition at a time, so most helpers
// produce ordered lists suitable for driving per-partition query loops.
package partition

import (
	"fmt"
	"time"
)

// epoch is the fixed origin for all identifiers.
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Day returns the day partition containing t.
func Day(t time.Time) int {
	return int(t.UTC().Truncate(24*time.Hour).Sub(epoch) / (24 * time.Hour))
}

// Month returns the month partition containing t.
func Month(t time.Time) int {
	u := t.UTC()
	return (u.Year()-1970)*12 + int(u.Month()) - 1
}

// Today returns the current day partition.
func Today() int {
	return Day(time.Now())
}

// ThisMonth returns the current month partition.
func ThisMonth() int {
	return Month(time.Now())
}

// DayTime returns the UTC midnight that starts the given day partition.
func DayTime(day int) time.Time {
	return epoch.AddDate(0, 0, day)
}

// MonthTime returns the UTC midnight that starts the given month partition.
func MonthTime(month int) time.Time {
	return time.Date(1970+month/12, time.Month(month%12+1), 1, 0, 0, 0, 0, time.UTC)
}

// Days returns count consecutive day partitions ending at ref, in
// ascending order. A count of zero or less yields an empty slice.
func Days(ref, count int) []int {
	if count <= 0 {
		return nil
	}
	out := make([]int, count)
	for i := 0; i < count; i++ {
		out[i] = ref - count + 1 + i
	}
	return out
}

// Months returns count consecutive month partitions ending at ref, in
// ascending order.
func Months(ref, count int) []int {
	return Days(ref, count) // same arithmetic, different unit
}

// DaysIn returns the number of days in the given month partition (28-31).
func DaysIn(month int) int {
	start := MonthTime(month)
	return int(start.AddDate(0, 1, 0).Sub(start).Hours() / 24)
}

// DaysOf returns the day partition of every day in the given month
// partition, in ascending order.
func DaysOf(month int) []int {
	n := DaysIn(month)
	first := Day(MonthTime(month))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = first + i
	}
	return out
}

// Bounds is a half-open range of Unix seconds covering one day.
type Bounds struct {
	Day   int
	Start int64
	End   int64
}

// DayBounds returns the [start, end) second range of every day in the
// given month partition. Ranges are contiguous and non-overlapping.
func DayBounds(month int) []Bounds {
	days := DaysOf(month)
	out := make([]Bounds, len(days))
	for i, d := range days {
		start := DayTime(d).Unix()
		out[i] = Bounds{Day: d, Start: start, End: start + 24*3600}
	}
	return out
}

// FormatDay renders a day partition as YYYYMMDD.
func FormatDay(day int) string {
	return DayTime(day).Format("20060102")
}

// ParseDay converts a YYYYMMDD string to a day partition.
func ParseDay(s string) (int, error) {
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day(t), nil
}

// FormatMonth renders a month partition as YYYYMM.
func FormatMonth(month int) string {
	return MonthTime(month).Format("200601")
}

// ParseMonth converts a YYYYMM string to a month partition.
func ParseMonth(s string) (int, error) {
	t, err := time.ParseInLocation("200601", s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month(t), nil
}
