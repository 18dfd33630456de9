package paybook

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Cell fill colors encoding payment state.
const (
	colorAlert     = "FF0000" // overdue and unpaid
	colorSettled   = "92D050" // paid
	colorAttention = "FFFF00" // pending in the current month
	colorProjected = "6ED1FE" // future month created by rollover
)

// PaymentSheet wraps one worksheet of the ledger workbook. Column A holds
// the first day of each row's month, column B a SUM formula, and every
// monitored column starts a triplet of amount, paid flag and due date
// cells. Data rows start at row 2.
type PaymentSheet struct {
	file          *excelize.File
	name          string
	monitoredCols []string
	categories    map[string]*PaymentCategory
}

// NewPaymentSheet binds a sheet of the workbook to its monitored columns.
func NewPaymentSheet(f *excelize.File, name string, monitoredCols []string) *PaymentSheet {
	return &PaymentSheet{
		file:          f,
		name:          name,
		monitoredCols: monitoredCols,
		categories:    make(map[string]*PaymentCategory),
	}
}

// Name returns the worksheet name.
func (s *PaymentSheet) Name() string { return s.name }

// MonitoredCols returns the configured column letters.
func (s *PaymentSheet) MonitoredCols() []string { return s.monitoredCols }

// Categories returns the mapping from category name to category.
func (s *PaymentSheet) Categories() map[string]*PaymentCategory { return s.categories }

// ActiveRow scans column A from row 2 down for a date in the current
// calendar month and returns its row index, or -1 when the scan runs out of
// non-empty rows. Every other sheet operation starts from this row, so
// callers must check for the sentinel.
func (s *PaymentSheet) ActiveRow() (int, error) {
	current := ThisMonth()
	for row := 2; ; row++ {
		date, ok, err := readCellDate(s.file, s.name, cellRef("A", row))
		if err != nil {
			return -1, err
		}
		if !ok {
			return -1, nil
		}
		if current.Contains(date) {
			return row, nil
		}
	}
}

// PopulateCategories rebuilds the in-memory categories from the grid. For
// each monitored column it walks backward from the active row while cells
// are non-empty, creating one payment per row keyed by the due date's
// month. This reconstructs full history, not just the current month. Each
// payment is colored as it is read, and the active row plus the row above
// it get the this-month / previous-month highlight.
func (s *PaymentSheet) PopulateCategories(activeRow int) error {
	for _, col := range s.monitoredCols {
		header, err := s.file.GetCellValue(s.name, cellRef(col, 1))
		if err != nil {
			return err
		}
		colIdx, err := excelize.ColumnNameToNumber(col)
		if err != nil {
			return err
		}
		cat := NewPaymentCategory(header, col)
		cat.Icon = s.headerIcon(col)
		for row := activeRow; row > 1; row-- {
			empty, err := cellEmpty(s.file, s.name, cellRef(col, row))
			if err != nil {
				return err
			}
			if empty {
				break
			}
			p, err := s.populatePayment(row, col, colIdx)
			if err != nil {
				return err
			}
			cat.Payments[YearMonthOf(p.DueDate)] = p
			s.categories[cat.Name] = cat
			if err := s.formatPayment(colIdx, p); err != nil {
				return err
			}
		}
	}
	return s.formatThisMonthCells(activeRow)
}

// populatePayment reads one amount/paid/due-date triplet into a Payment.
func (s *PaymentSheet) populatePayment(row int, col string, colIdx int) (*Payment, error) {
	amount, err := readCellDecimal(s.file, s.name, cellRef(col, row))
	if err != nil {
		return nil, err
	}
	paid, err := readCellBool(s.file, s.name, cellRefAt(colIdx+1, row))
	if err != nil {
		return nil, err
	}
	dueRef := cellRefAt(colIdx+2, row)
	due, ok, err := readCellDate(s.file, s.name, dueRef)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("cell %s!%s: missing due date", s.name, dueRef)
	}
	return NewPayment(paid, due, amount, row), nil
}

// headerIcon resolves the category icon from the header cell's comment,
// falling back to the default icon.
func (s *PaymentSheet) headerIcon(col string) string {
	comments, err := s.file.GetComments(s.name)
	if err != nil {
		return DefaultIcon
	}
	ref := cellRef(col, 1)
	for _, c := range comments {
		if c.Cell != ref {
			continue
		}
		text := strings.TrimSpace(c.Text)
		if text == "" {
			var b strings.Builder
			for _, run := range c.Paragraph {
				b.WriteString(run.Text)
			}
			text = strings.TrimSpace(b.String())
		}
		if text != "" {
			return text
		}
	}
	return DefaultIcon
}

// formatThisMonthCells highlights the date and sum cells of the active row
// and of the month before it, independent of payment status.
func (s *PaymentSheet) formatThisMonthCells(activeRow int) error {
	for _, ref := range []string{cellRef("A", activeRow), cellRef("B", activeRow)} {
		if err := fillCell(s.file, s.name, ref, colorAttention); err != nil {
			return err
		}
	}
	for _, ref := range []string{cellRef("A", activeRow-1), cellRef("B", activeRow-1)} {
		if err := fillCell(s.file, s.name, ref, colorSettled); err != nil {
			return err
		}
	}
	return nil
}

// formatPayment colors a payment's amount/paid/due-date cells. First match
// wins: overdue, paid, due in the current month, otherwise projected.
func (s *PaymentSheet) formatPayment(colIdx int, p *Payment) error {
	var color string
	switch {
	case p.Overdue():
		color = colorAlert
	case p.Paid:
		color = colorSettled
	case ThisMonth().Contains(p.DueDate):
		color = colorAttention
	default:
		color = colorProjected
	}
	for off := 0; off < 3; off++ {
		if err := fillCell(s.file, s.name, cellRefAt(colIdx+off, p.Row), color); err != nil {
			return err
		}
	}
	return nil
}

// PopulateNextMonth extends the grid by one row for the month after the
// current one. The target month is anchored to real time, not to the
// sheet's current row, so a stale sheet does not drift. The rollover is
// idempotent: a second call on the same state changes nothing.
func (s *PaymentSheet) PopulateNextMonth(currentRow int) error {
	proceed, err := s.processNextMonthCell(currentRow)
	if err != nil || !proceed {
		return err
	}
	if err := s.processNextSum(currentRow); err != nil {
		return err
	}
	return s.populateNextMonthPayments(currentRow)
}

// processNextMonthCell creates or verifies the next row's date cell and
// reports whether the rollover should proceed. An existing cell with a
// different date means the grid is inconsistent, so nothing is touched.
func (s *PaymentSheet) processNextMonthCell(currentRow int) (bool, error) {
	curRef := cellRef("A", currentRow)
	nextRef := cellRef("A", currentRow+1)
	nextMonthDate := ThisMonth().Next().First()

	empty, err := cellEmpty(s.file, s.name, nextRef)
	if err != nil {
		return false, err
	}
	if empty {
		if err := s.file.SetCellValue(s.name, nextRef, nextMonthDate); err != nil {
			return false, err
		}
		if err := copyCellStyle(s.file, s.name, curRef, nextRef); err != nil {
			return false, err
		}
		if err := fillCell(s.file, s.name, nextRef, colorProjected); err != nil {
			return false, err
		}
		return true, nil
	}

	date, ok, err := readCellDate(s.file, s.name, nextRef)
	if err != nil || !ok {
		return false, nil
	}
	if sameDay(date, nextMonthDate) {
		if err := fillCell(s.file, s.name, nextRef, colorProjected); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// processNextSum writes the next row's SUM formula over the monitored
// columns, unless that cell already holds something.
func (s *PaymentSheet) processNextSum(currentRow int) error {
	curRef := cellRef("B", currentRow)
	nextRef := cellRef("B", currentRow+1)
	empty, err := cellEmpty(s.file, s.name, nextRef)
	if err != nil || !empty {
		return err
	}
	if err := s.file.SetCellFormula(s.name, nextRef, s.sumFormula(currentRow+1)); err != nil {
		return err
	}
	if err := copyCellStyle(s.file, s.name, curRef, nextRef); err != nil {
		return err
	}
	return fillCell(s.file, s.name, nextRef, colorProjected)
}

// sumFormula builds the SUM formula over all monitored columns at a row.
func (s *PaymentSheet) sumFormula(row int) string {
	refs := make([]string, len(s.monitoredCols))
	for i, col := range s.monitoredCols {
		refs[i] = cellRef(col, row)
	}
	// SetCellFormula stores the string verbatim in the sheet XML, so no
	// leading "=" here.
	return fmt.Sprintf("SUM(%s)", strings.Join(refs, ","))
}

// populateNextMonthPayments seeds every category's next-row triplet: the
// amount copied verbatim, the due date advanced one calendar month with the
// day clamped, and an unpaid flag. Styling comes from the current row.
// All three cells get the projected fill whether or not they were freshly
// seeded.
func (s *PaymentSheet) populateNextMonthPayments(currentRow int) error {
	for _, cat := range s.categories {
		colIdx, err := excelize.ColumnNameToNumber(cat.Column)
		if err != nil {
			return err
		}
		if err := s.seedNextAmount(colIdx, currentRow); err != nil {
			return err
		}
		if err := s.seedNextPaid(colIdx, currentRow); err != nil {
			return err
		}
		if err := s.seedNextDueDate(colIdx, currentRow); err != nil {
			return err
		}
	}
	return nil
}

func (s *PaymentSheet) seedNextAmount(colIdx, currentRow int) error {
	curRef := cellRefAt(colIdx, currentRow)
	nextRef := cellRefAt(colIdx, currentRow+1)
	empty, err := cellEmpty(s.file, s.name, nextRef)
	if err != nil {
		return err
	}
	if empty {
		amount, err := readCellDecimal(s.file, s.name, curRef)
		if err != nil {
			return err
		}
		value, _ := amount.Float64()
		if err := s.file.SetCellValue(s.name, nextRef, value); err != nil {
			return err
		}
		if err := copyCellStyle(s.file, s.name, curRef, nextRef); err != nil {
			return err
		}
	}
	return fillCell(s.file, s.name, nextRef, colorProjected)
}

func (s *PaymentSheet) seedNextPaid(colIdx, currentRow int) error {
	curRef := cellRefAt(colIdx+1, currentRow)
	nextRef := cellRefAt(colIdx+1, currentRow+1)
	empty, err := cellEmpty(s.file, s.name, nextRef)
	if err != nil {
		return err
	}
	if empty {
		if err := s.file.SetCellValue(s.name, nextRef, 0); err != nil {
			return err
		}
		if err := copyCellStyle(s.file, s.name, curRef, nextRef); err != nil {
			return err
		}
	}
	return fillCell(s.file, s.name, nextRef, colorProjected)
}

func (s *PaymentSheet) seedNextDueDate(colIdx, currentRow int) error {
	curRef := cellRefAt(colIdx+2, currentRow)
	nextRef := cellRefAt(colIdx+2, currentRow+1)
	empty, err := cellEmpty(s.file, s.name, nextRef)
	if err != nil {
		return err
	}
	if empty {
		due, ok, err := readCellDate(s.file, s.name, curRef)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("cell %s!%s: missing due date", s.name, curRef)
		}
		if err := s.file.SetCellValue(s.name, nextRef, AddMonths(due, 1)); err != nil {
			return err
		}
		if err := copyCellStyle(s.file, s.name, curRef, nextRef); err != nil {
			return err
		}
	}
	return fillCell(s.file, s.name, nextRef, colorProjected)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
