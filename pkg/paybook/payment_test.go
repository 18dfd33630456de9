package paybook

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// pinNow fixes the package clock for the duration of a test.
func pinNow(t *testing.T, now time.Time) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = old })
}

func TestPaymentPredicates(t *testing.T) {
	now := time.Date(2026, time.August, 5, 12, 0, 0, 0, time.UTC)
	pinNow(t, now)

	tests := []struct {
		name       string
		due        time.Time
		paid       bool
		within2    bool
		overdue    bool
	}{
		{"due in five days", now.AddDate(0, 0, 5), false, false, false},
		{"due in two days", now.AddDate(0, 0, 2), false, true, false},
		{"due today", now, false, true, false},
		{"overdue counts as urgent", now.AddDate(0, 0, -3), false, true, true},
		{"paid is never urgent", now.AddDate(0, 0, -3), true, false, false},
		{"paid and due soon", now.AddDate(0, 0, 1), true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPayment(tt.paid, tt.due, decimal.NewFromInt(100), 2)
			assert.Equal(t, tt.within2, p.PayableWithin2Days())
			assert.Equal(t, tt.within2, p.DueSoonOrOverdue())
			assert.Equal(t, tt.overdue, p.Overdue())
		})
	}
}

func TestPaymentBusinessDaysLeft(t *testing.T) {
	// 2026-08-05 is a Wednesday.
	pinNow(t, time.Date(2026, time.August, 5, 9, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{"same day", time.Date(2026, time.August, 5, 18, 0, 0, 0, time.UTC), 0},
		{"next day", time.Date(2026, time.August, 6, 0, 0, 0, 0, time.UTC), 1},
		{"over a weekend", time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC), 3},
		{"overdue is negative", time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC), -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPayment(false, tt.due, decimal.NewFromInt(50), 2)
			assert.Equal(t, tt.want, p.BusinessDaysLeft())
		})
	}
}

func TestPaymentString(t *testing.T) {
	due := time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC)
	p := NewPayment(false, due, decimal.RequireFromString("1500.5"), 2)
	assert.Equal(t, "1500.50zł - not yet paid - 2026-08-10", p.String())

	p.Paid = true
	assert.Equal(t, "1500.50zł - paid - 2026-08-10", p.String())
}
