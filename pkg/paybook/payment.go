// Package paybook implements a monthly bill ledger backed by an Excel
// workbook. Each monitored sheet holds one row per calendar month; each
// payment category occupies a triplet of columns (amount, paid flag, due
// date). The package discovers historical payments, rolls the grid forward
// one month at a time and merges externally fetched payment statuses into
// the current month's row.
package paybook

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// timeNow is the clock used by every date predicate. Tests pin it to get
// deterministic behavior around month boundaries.
var timeNow = time.Now

// Payment is a single month's monetary obligation and its position in the
// backing grid. It is a value holder; all mutation goes through
// PaymentBook's merge operation or the rollover.
type Payment struct {
	Amount  decimal.Decimal
	Paid    bool
	DueDate time.Time
	Row     int
}

// NewPayment creates a payment. The due date is required; it anchors the
// payment's month key.
func NewPayment(paid bool, dueDate time.Time, amount decimal.Decimal, row int) *Payment {
	return &Payment{
		Amount:  amount,
		Paid:    paid,
		DueDate: dueDate,
		Row:     row,
	}
}

// String renders the payment as "1500.00zł - not yet paid - 2026-08-10".
func (p *Payment) String() string {
	return fmt.Sprintf("%szł - %s - %s", p.Amount.StringFixed(2), p.PaidStatus(), p.DueDate.Format("2006-01-02"))
}

// PaidStatus returns a text label describing the paid flag.
func (p *Payment) PaidStatus() string {
	if p.Paid {
		return "paid"
	}
	return "not yet paid"
}

// PayableWithin2Days reports whether the payment is unpaid and due within
// the next two days. Past-due payments also count as urgent, so the check
// holds for zero and negative deltas.
func (p *Payment) PayableWithin2Days() bool {
	delta := p.DueDate.Sub(timeNow())
	return !p.Paid && int(delta.Hours()/24) <= 2
}

// DueSoonOrOverdue is an alias for PayableWithin2Days kept for readability
// at notification call sites.
func (p *Payment) DueSoonOrOverdue() bool {
	return p.PayableWithin2Days()
}

// Overdue reports whether the payment is past due and still unpaid.
func (p *Payment) Overdue() bool {
	return !p.Paid && p.DueDate.Before(timeNow())
}

// BusinessDaysLeft counts business days (Mon-Fri) from today up to but not
// including the due date. Negative when the due date has passed.
func (p *Payment) BusinessDaysLeft() int {
	return businessDays(timeNow(), p.DueDate)
}

// businessDays counts weekdays in [from, to) at day granularity, negated
// when to precedes from.
func businessDays(from, to time.Time) int {
	from = truncateDay(from)
	to = truncateDay(to)
	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}
	n := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return sign * n
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
