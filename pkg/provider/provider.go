// Package provider defines the boundary between external payment-status
// sources and the ledger. Each provider fetches the live status of one
// bill; the pipeline merges the result into the payment book.
package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pwegrzyn/paybook/pkg/paybook"
)

// Result is what a provider learned about the current month's bill. Nil
// fields mean the provider has nothing to say about that aspect.
type Result struct {
	Amount      *decimal.Decimal
	Paid        *bool
	DueDate     *time.Time
	ForceUnpaid *bool
	Status      string // human-readable line for logs and notifications
}

// Update maps the result onto the ledger's merge arguments.
func (r Result) Update() paybook.PaymentUpdate {
	return paybook.PaymentUpdate{
		Amount:      r.Amount,
		Paid:        r.Paid,
		DueDate:     r.DueDate,
		ForceUnpaid: r.ForceUnpaid,
	}
}

// Provider fetches the live payment status of one external bill source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (Result, error)
}
