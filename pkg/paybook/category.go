package paybook

// DefaultIcon is used when a category's header cell carries no icon
// annotation.
const DefaultIcon = "fa-camera"

// PaymentCategory is a named bucket bound to one grid column, holding one
// payment per elapsed month.
type PaymentCategory struct {
	Name     string
	Column   string
	Icon     string
	Payments map[YearMonth]*Payment
}

// NewPaymentCategory creates an empty category bound to a column letter.
func NewPaymentCategory(name, column string) *PaymentCategory {
	return &PaymentCategory{
		Name:     name,
		Column:   column,
		Icon:     DefaultIcon,
		Payments: make(map[YearMonth]*Payment),
	}
}

// String returns the category name for display.
func (c *PaymentCategory) String() string {
	return c.Name
}

// HasPayments reports whether any payment has been discovered for the
// category.
func (c *PaymentCategory) HasPayments() bool {
	return len(c.Payments) > 0
}
