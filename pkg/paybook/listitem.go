package paybook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentListItem is a read-only composite of a payment, its category and
// its sheet, built on demand for sorting, rendering and serialization. It
// holds non-owning references into the book's state.
type PaymentListItem struct {
	Payment  *Payment
	Category *PaymentCategory
	Sheet    *PaymentSheet
}

// PaymentRecord is the serialized form of a list item, shaped for report
// and notification payloads.
type PaymentRecord struct {
	Sheet            string      `json:"sheet"`
	Category         string      `json:"category"`
	Amount           json.Number `json:"amount"`
	Paid             bool        `json:"paid"`
	DueDate          string      `json:"duedate"`
	BusinessDaysLeft int         `json:"b_days_left"`
	Icon             string      `json:"icon"`
}

// Record serializes the item. The amount is rounded to two decimal places
// and the due date rendered as an ISO YYYY-MM-DD string.
func (it PaymentListItem) Record() PaymentRecord {
	return PaymentRecord{
		Sheet:            it.Sheet.Name(),
		Category:         it.Category.Name,
		Amount:           json.Number(it.Payment.Amount.StringFixed(2)),
		Paid:             it.Payment.Paid,
		DueDate:          it.Payment.DueDate.Format("2006-01-02"),
		BusinessDaysLeft: it.Payment.BusinessDaysLeft(),
		Icon:             it.Category.Icon,
	}
}

// String renders the breadcrumb "Sheet >> Category >> <payment>" used in
// notification payloads.
func (it PaymentListItem) String() string {
	var b strings.Builder
	if it.Sheet != nil {
		b.WriteString(it.Sheet.Name())
	}
	if it.Category != nil {
		fmt.Fprintf(&b, " >> %s", it.Category.Name)
	}
	if it.Payment != nil {
		fmt.Fprintf(&b, " >> %s", it.Payment)
	}
	return b.String()
}
