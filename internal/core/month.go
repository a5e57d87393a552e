package core

import (
	"fmt"
	"time"
)

// Month identifies a calendar month (the YYYY-MM key every instance is
// bucketed under). The zero value is invalid.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Key returns the canonical YYYY-MM form.
func (m Month) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// DisplayLabel returns a short human label, e.g. "Jan 2024".
func (m Month) DisplayLabel() string {
	return m.Start().Format("Jan 2006")
}

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Add returns the month n months later (n may be negative). Overflow is
// normalized by the time package.
func (m Month) Add(n int) Month {
	return MonthOf(m.Start().AddDate(0, n, 0))
}

// Days returns the number of days in the month. Day zero of the next
// month is the last day of this one.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns the date at the given day of the month, clamped to
// the month's length: day 31 in a 30-day month resolves to day 30 and
// never rolls into the next month.
func (m Month) ClampDay(day int) Date {
	if last := m.Days(); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(m.Year, int(m.Month), day)
}

func (m Month) Equal(o Month) bool {
	return m.Year == o.Year && m.Month == o.Month
}

func (m Month) Before(o Month) bool {
	return m.Year < o.Year || (m.Year == o.Year && m.Month < o.Month)
}

func (m Month) After(o Month) bool {
	return o.Before(m)
}

// MonthsBetween returns the signed number of months from a to b.
func MonthsBetween(a, b Month) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}

// MonthsIn returns every month of the inclusive [from, to] window in
// order, or nil for an inverted window.
func MonthsIn(from, to Month) []Month {
	if from.After(to) {
		return nil
	}
	months := make([]Month, 0, MonthsBetween(from, to)+1)
	for m := from; !m.After(to); m = m.Add(1) {
		months = append(months, m)
	}
	return months
}

func maxMonth(a, b Month) Month {
	if a.After(b) {
		return a
	}
	return b
}

func minMonth(a, b Month) Month {
	if a.Before(b) {
		return a
	}
	return b
}

// IntersectMonths clips [from, to] to [lo, hi]. The second return is
// false when the ranges do not overlap.
func IntersectMonths(from, to, lo, hi Month) (Month, Month, bool) {
	start := maxMonth(from, lo)
	end := minMonth(to, hi)
	if start.After(end) {
		return Month{}, Month{}, false
	}
	return start, end, true
}
