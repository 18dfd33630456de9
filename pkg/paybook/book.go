package paybook

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// PaymentBook is the registry of monitored payment sheets and the only
// component that mutates the backing workbook. It is single-writer and
// fully synchronous: load, merge provider updates, save.
type PaymentBook struct {
	file            *excelize.File
	sheets          map[string]*PaymentSheet
	monitoredSheets map[string][]string
}

// NewPaymentBook configures a book with a map of sheet name to the ordered
// monitored column letters of that sheet.
func NewPaymentBook(monitoredSheets map[string][]string) *PaymentBook {
	return &PaymentBook{
		sheets:          make(map[string]*PaymentSheet),
		monitoredSheets: monitoredSheets,
	}
}

// Sheets returns the mapping of sheet name to PaymentSheet.
func (b *PaymentBook) Sheets() map[string]*PaymentSheet { return b.sheets }

// MonitoredSheets returns the monitored sheet configuration.
func (b *PaymentBook) MonitoredSheets() map[string][]string { return b.monitoredSheets }

// Load parses workbook bytes and builds the per-sheet payment structures.
// Macro content in the source document survives a later save. Each
// configured sheet present in the workbook has its active row located; the
// sheet is populated and rolled over only when one was found, and skipped
// silently otherwise.
func (b *PaymentBook) Load(data []byte) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	b.file = f
	b.sheets = make(map[string]*PaymentSheet)
	for sheetName, cols := range b.monitoredSheets {
		idx, err := f.GetSheetIndex(sheetName)
		if err != nil {
			return &SheetError{Sheet: sheetName, Err: err}
		}
		if idx < 0 {
			continue
		}
		sheet := NewPaymentSheet(f, sheetName, cols)
		row, err := sheet.ActiveRow()
		if err != nil {
			return &SheetError{Sheet: sheetName, Err: err}
		}
		if row > 1 {
			if err := sheet.PopulateCategories(row); err != nil {
				return &SheetError{Sheet: sheetName, Err: err}
			}
			if err := sheet.PopulateNextMonth(row); err != nil {
				return &SheetError{Sheet: sheetName, Err: err}
			}
			b.sheets[sheetName] = sheet
		}
	}
	return nil
}

// Bytes serializes the workbook, including every fill and formula applied
// since Load.
func (b *PaymentBook) Bytes() ([]byte, error) {
	if b.file == nil {
		return nil, ErrNotLoaded
	}
	buf, err := b.file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveTo persists the workbook to a file path.
func (b *PaymentBook) SaveTo(path string) error {
	if b.file == nil {
		return ErrNotLoaded
	}
	return b.file.SaveAs(path)
}

// PaymentUpdate carries the optional fields of a merge. Nil fields are left
// untouched. ForceUnpaid defaults to true when nil; setting it to false
// protects a recorded paid state from a provider's transient unpaid signal
// in the hours after a billing-cycle rollover.
type PaymentUpdate struct {
	Amount      *decimal.Decimal
	Paid        *bool
	DueDate     *time.Time
	ForceUnpaid *bool
}

// UpdateCurrentPayment merges externally fetched data into the current
// month's payment of one category. Unknown sheet or category names, a
// missing month entry, and a due date outside the current calendar month
// are all silent no-ops; the time gate keeps a stale or mis-keyed update
// from corrupting the ledger.
//
// Paid updates are asymmetric: true always commits, false commits only
// under ForceUnpaid. A new due date recolors the payment's cells; amount
// or paid changes alone do not refresh the color.
func (b *PaymentBook) UpdateCurrentPayment(sheetName, categoryName string, upd PaymentUpdate) error {
	sheet, ok := b.sheets[sheetName]
	if !ok {
		return nil
	}
	cat, ok := sheet.Categories()[categoryName]
	if !ok {
		return nil
	}
	pmt, ok := cat.Payments[ThisMonth()]
	if !ok {
		return nil
	}
	if !ThisMonth().Contains(pmt.DueDate) {
		return nil
	}

	colIdx, err := excelize.ColumnNameToNumber(cat.Column)
	if err != nil {
		return err
	}
	amountRef := cellRefAt(colIdx, pmt.Row)
	paidRef := cellRefAt(colIdx+1, pmt.Row)
	dueRef := cellRefAt(colIdx+2, pmt.Row)

	forceUnpaid := true
	if upd.ForceUnpaid != nil {
		forceUnpaid = *upd.ForceUnpaid
	}

	if upd.Amount != nil {
		pmt.Amount = *upd.Amount
		value, _ := upd.Amount.Float64()
		if err := b.file.SetCellValue(sheetName, amountRef, value); err != nil {
			return err
		}
	}

	if upd.Paid != nil {
		if *upd.Paid || forceUnpaid {
			pmt.Paid = *upd.Paid
			if err := b.file.SetCellValue(sheetName, paidRef, boolToInt(*upd.Paid)); err != nil {
				return err
			}
		}
	}

	if upd.DueDate != nil {
		pmt.DueDate = *upd.DueDate
		if err := b.file.SetCellValue(sheetName, dueRef, *upd.DueDate); err != nil {
			return err
		}
		if err := sheet.formatPayment(colIdx, pmt); err != nil {
			return err
		}
	}
	return nil
}

// PaymentList flattens every sheet, category and payment into list items.
// Order follows map iteration and is unspecified.
func (b *PaymentBook) PaymentList() []PaymentListItem {
	var result []PaymentListItem
	for _, sheet := range b.sheets {
		for _, cat := range sheet.Categories() {
			for _, pmt := range cat.Payments {
				result = append(result, PaymentListItem{
					Payment:  pmt,
					Category: cat,
					Sheet:    sheet,
				})
			}
		}
	}
	return result
}

// SortPaymentListByDate returns the items sorted by due date ascending.
// The sort is stable, so items with equal due dates keep their relative
// order.
func SortPaymentListByDate(items []PaymentListItem) []PaymentListItem {
	sorted := make([]PaymentListItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Payment.DueDate.Before(sorted[j].Payment.DueDate)
	})
	return sorted
}

// MakeJSONPayments maps list items to their serialized record form.
func MakeJSONPayments(items []PaymentListItem) []PaymentRecord {
	result := make([]PaymentRecord, 0, len(items))
	for _, item := range items {
		result = append(result, item.Record())
	}
	return result
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
