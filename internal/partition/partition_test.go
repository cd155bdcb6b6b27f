package partition

import (
	"testing"
	"time"
)

func TestDay(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want int
	}{
		{"epoch", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 0},
		{"next day", time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC), 1},
		{"mid-day truncates", time.Date(1970, 1, 2, 23, 59, 59, 0, time.UTC), 1},
		{"known date", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 19723},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Day(tt.time); got != tt.want {
				t.Errorf("Day(%v) = %d, want %d", tt.time, got, tt.want)
			}
		})
	}
}

func TestMonth(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want int
	}{
		{"epoch", time.Date(1970, 1, 15, 0, 0, 0, 0, time.UTC), 0},
		{"december 1970", time.Date(1970, 12, 1, 0, 0, 0, 0, time.UTC), 11},
		{"january 1971", time.Date(1971, 1, 1, 0, 0, 0, 0, time.UTC), 12},
		{"known month", time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), 654},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Month(tt.time); got != tt.want {
				t.Errorf("Month(%v) = %d, want %d", tt.time, got, tt.want)
			}
		})
	}
}

func TestDays(t *testing.T) {
	got := Days(100, 5)
	want := []int{96, 97, 98, 99, 100}
	if len(got) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Days(100, 5)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDaysCount(t *testing.T) {
	for _, count := range []int{1, 7, 31, 365} {
		got := Days(20000, count)
		if len(got) != count {
			t.Errorf("Days(20000, %d) returned %d identifiers", count, len(got))
		}
		seen := make(map[int]bool)
		for i, d := range got {
			if seen[d] {
				t.Errorf("duplicate identifier %d", d)
			}
			seen[d] = true
			if i > 0 && d != got[i-1]+1 {
				t.Errorf("identifiers not consecutive at index %d: %d after %d", i, d, got[i-1])
			}
		}
	}
}

func TestDaysEmpty(t *testing.T) {
	if got := Days(100, 0); got != nil {
		t.Errorf("Days(100, 0) = %v, want nil", got)
	}
	if got := Days(100, -3); got != nil {
		t.Errorf("Days(100, -3) = %v, want nil", got)
	}
}

func TestDaysIn(t *testing.T) {
	tests := []struct {
		name  string
		month int
		want  int
	}{
		{"january 1970", 0, 31},
		{"february 1970", 1, 28},
		{"april 1970", 3, 30},
		{"february 1972 leap", 25, 29},
		{"february 2024 leap", Month(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)), 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysIn(tt.month); got != tt.want {
				t.Errorf("DaysIn(%d) = %d, want %d", tt.month, got, tt.want)
			}
		})
	}
}

func TestDaysOf(t *testing.T) {
	// January 1970 is day 0 through day 30.
	got := DaysOf(0)
	if len(got) != 31 {
		t.Fatalf("expected 31 days, got %d", len(got))
	}
	if got[0] != 0 || got[30] != 30 {
		t.Errorf("unexpected range: first=%d last=%d", got[0], got[30])
	}

	// February 1970 starts right after January ends.
	feb := DaysOf(1)
	if len(feb) != 28 {
		t.Fatalf("expected 28 days, got %d", len(feb))
	}
	if feb[0] != 31 {
		t.Errorf("february should start at day 31, got %d", feb[0])
	}
}

func TestDayBounds(t *testing.T) {
	tests := []struct {
		name  string
		month int
		days  int
	}{
		{"31-day month", 0, 31},
		{"28-day month", 1, 28},
		{"30-day month", 3, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bounds := DayBounds(tt.month)
			if len(bounds) != tt.days {
				t.Fatalf("expected %d ranges, got %d", tt.days, len(bounds))
			}
			for i, b := range bounds {
				if b.End-b.Start != 24*3600 {
					t.Errorf("range %d spans %d seconds", i, b.End-b.Start)
				}
				if i > 0 && b.Start != bounds[i-1].End {
					t.Errorf("range %d overlaps or gaps: start=%d prev end=%d", i, b.Start, bounds[i-1].End)
				}
			}
		})
	}
}

func TestDayBoundsFirstDay(t *testing.T) {
	bounds := DayBounds(0)
	if bounds[0].Start != 0 {
		t.Errorf("first second of 1970 should be 0, got %d", bounds[0].Start)
	}
}

func TestFormatParseDay(t *testing.T) {
	tests := []struct {
		day int
		str string
	}{
		{0, "19700101"},
		{31, "19700201"},
		{19723, "20240101"},
	}

	for _, tt := range tests {
		if got := FormatDay(tt.day); got != tt.str {
			t.Errorf("FormatDay(%d) = %q, want %q", tt.day, got, tt.str)
		}
		got, err := ParseDay(tt.str)
		if err != nil {
			t.Fatalf("ParseDay(%q): %v", tt.str, err)
		}
		if got != tt.day {
			t.Errorf("ParseDay(%q) = %d, want %d", tt.str, got, tt.day)
		}
	}
}

func TestParseDayInvalid(t *testing.T) {
	for _, s := range []string{"", "2024", "not-a-date", "20241301"} {
		if _, err := ParseDay(s); err == nil {
			t.Errorf("ParseDay(%q) should fail", s)
		}
	}
}

func TestFormatParseMonth(t *testing.T) {
	tests := []struct {
		month int
		str   string
	}{
		{0, "197001"},
		{11, "197012"},
		{654, "202407"},
	}

	for _, tt := range tests {
		if got := FormatMonth(tt.month); got != tt.str {
			t.Errorf("FormatMonth(%d) = %q, want %q", tt.month, got, tt.str)
		}
		got, err := ParseMonth(tt.str)
		if err != nil {
			t.Fatalf("ParseMonth(%q): %v", tt.str, err)
		}
		if got != tt.month {
			t.Errorf("ParseMonth(%q) = %d, want %d", tt.str, got, tt.month)
		}
	}
}

func TestMonthTimeRoundTrip(t *testing.T) {
	for m := 0; m < 700; m++ {
		if got := Month(MonthTime(m)); got != m {
			t.Fatalf("Month(MonthTime(%d)) = %d", m, got)
		}
	}
}
