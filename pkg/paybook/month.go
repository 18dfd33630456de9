package paybook

import (
	"fmt"
	"time"
)

// YearMonth identifies one calendar month. It is the key type for payments
// within a category, so a payment's key can never drift from its due date.
type YearMonth struct {
	Year  int
	Month time.Month
}

// YearMonthOf returns the calendar month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ThisMonth returns the current calendar month.
func ThisMonth() YearMonth {
	return YearMonthOf(timeNow())
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// First returns the first day of the month at midnight UTC.
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside the month.
func (ym YearMonth) Contains(t time.Time) bool {
	return t.Year() == ym.Year && t.Month() == ym.Month
}

// Before reports whether ym is strictly earlier than x.
func (ym YearMonth) Before(x YearMonth) bool {
	if ym.Year != x.Year {
		return ym.Year < x.Year
	}
	return ym.Month < x.Month
}

// String renders the month as "2026-8" for logs and status lines.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%d-%d", ym.Year, int(ym.Month))
}

// AddMonths shifts t by the given number of calendar months, clamping the
// day of month to the last valid day of the target month (Jan 31 + 1 month
// is Feb 28, or Feb 29 in a leap year).
func AddMonths(t time.Time, months int) time.Time {
	m := int(t.Month()) - 1 + months
	year := t.Year() + m/12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	month := time.Month(m + 1)
	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
