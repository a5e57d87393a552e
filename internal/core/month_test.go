package core

import (
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Month
		wantErr bool
	}{
		{"valid", "2024-01", Month{2024, time.January}, false},
		{"valid december", "2024-12", Month{2024, time.December}, false},
		{"month out of range", "2024-13", Month{}, true},
		{"missing month", "2024", Month{}, true},
		{"garbage", "gennaio", Month{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonth(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseMonth(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMonthKeyRoundTrip(t *testing.T) {
	m := Month{2024, time.March}
	if m.Key() != "2024-03" {
		t.Errorf("Key() = %q, want %q", m.Key(), "2024-03")
	}
	back, err := ParseMonth(m.Key())
	if err != nil {
		t.Fatalf("ParseMonth(Key()) error = %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("round trip = %v, want %v", back, m)
	}
}

func TestMonthAdd(t *testing.T) {
	tests := []struct {
		name string
		m    Month
		n    int
		want Month
	}{
		{"same year", Month{2024, time.January}, 3, Month{2024, time.April}},
		{"year overflow", Month{2024, time.November}, 3, Month{2025, time.February}},
		{"negative", Month{2024, time.February}, -3, Month{2023, time.November}},
		{"zero", Month{2024, time.June}, 0, Month{2024, time.June}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Add(tt.n); !got.Equal(tt.want) {
				t.Errorf("%v.Add(%d) = %v, want %v", tt.m, tt.n, got, tt.want)
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b Month
		want int
	}{
		{"same month", Month{2024, time.May}, Month{2024, time.May}, 0},
		{"forward", Month{2024, time.January}, Month{2024, time.December}, 11},
		{"across years", Month{2023, time.November}, Month{2024, time.February}, 3},
		{"backward", Month{2024, time.March}, Month{2024, time.January}, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("MonthsBetween(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		name    string
		m       Month
		day     int
		wantDay int
	}{
		{"day 31 in april clamps to 30", Month{2024, time.April}, 31, 30},
		{"day 31 in february leap year", Month{2024, time.February}, 31, 29},
		{"day 31 in february non-leap", Month{2023, time.February}, 31, 28},
		{"day within month untouched", Month{2024, time.April}, 15, 15},
		{"last day exactly", Month{2024, time.January}, 31, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.ClampDay(tt.day)
			if got.Day() != tt.wantDay {
				t.Errorf("ClampDay(%d) day = %d, want %d", tt.day, got.Day(), tt.wantDay)
			}
			if MonthOf(got.Time) != tt.m {
				t.Errorf("ClampDay(%d) rolled into %v, want %v", tt.day, MonthOf(got.Time), tt.m)
			}
		})
	}
}

func TestMonthsIn(t *testing.T) {
	t.Run("inclusive window", func(t *testing.T) {
		got := MonthsIn(Month{2024, time.November}, Month{2025, time.February})
		if len(got) != 4 {
			t.Fatalf("len = %d, want 4", len(got))
		}
		if !got[0].Equal(Month{2024, time.November}) || !got[3].Equal(Month{2025, time.February}) {
			t.Errorf("window bounds wrong: %v", got)
		}
	})

	t.Run("single month", func(t *testing.T) {
		got := MonthsIn(Month{2024, time.May}, Month{2024, time.May})
		if len(got) != 1 {
			t.Errorf("len = %d, want 1", len(got))
		}
	})

	t.Run("inverted window yields nil", func(t *testing.T) {
		if got := MonthsIn(Month{2024, time.June}, Month{2024, time.May}); got != nil {
			t.Errorf("inverted window = %v, want nil", got)
		}
	})
}

func TestIntersectMonths(t *testing.T) {
	jan := Month{2024, time.January}
	jun := Month{2024, time.June}
	dec := Month{2024, time.December}

	t.Run("overlap clipped", func(t *testing.T) {
		lo, hi, ok := IntersectMonths(jan, dec, Month{2024, time.March}, jun)
		if !ok {
			t.Fatal("expected overlap")
		}
		if !lo.Equal(Month{2024, time.March}) || !hi.Equal(jun) {
			t.Errorf("got [%v, %v]", lo, hi)
		}
	})

	t.Run("disjoint", func(t *testing.T) {
		if _, _, ok := IntersectMonths(jan, jun, Month{2025, time.January}, Month{2025, time.June}); ok {
			t.Error("expected no overlap")
		}
	})
}
