package paybook

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// testNow anchors sheet tests to a fixed date: Wednesday 2026-08-05.
var testNow = time.Date(2026, time.August, 5, 10, 0, 0, 0, time.UTC)

// newTestSheet builds a "Home" worksheet with a July history row and the
// current August row for a single monitored category in column C.
func newTestSheet(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Home"))

	require.NoError(t, f.SetCellValue("Home", "A1", "Date"))
	require.NoError(t, f.SetCellValue("Home", "B1", "Sum"))
	require.NoError(t, f.SetCellValue("Home", "C1", "Rent"))

	// July history row: paid.
	require.NoError(t, f.SetCellValue("Home", "A2", time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Home", "B2", 1500.0))
	require.NoError(t, f.SetCellValue("Home", "C2", 1500.0))
	require.NoError(t, f.SetCellValue("Home", "D2", 1))
	require.NoError(t, f.SetCellValue("Home", "E2", time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)))

	// Current month row: unpaid, due on the 10th.
	require.NoError(t, f.SetCellValue("Home", "A3", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Home", "B3", 0.0))
	require.NoError(t, f.SetCellValue("Home", "C3", 1500.0))
	require.NoError(t, f.SetCellValue("Home", "D3", 0))
	require.NoError(t, f.SetCellValue("Home", "E3", time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC)))

	return f
}

// fillColor returns the fill color of a cell, or "" when none is set.
func fillColor(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	styleID, err := f.GetCellStyle(sheet, ref)
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	if len(style.Fill.Color) == 0 {
		return ""
	}
	return strings.ToUpper(style.Fill.Color[0])
}

func assertFill(t *testing.T, f *excelize.File, sheet, ref, color string) {
	t.Helper()
	got := fillColor(t, f, sheet, ref)
	assert.Truef(t, strings.HasSuffix(got, color), "cell %s: fill %q, want %q", ref, got, color)
}

func TestActiveRow(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	sheet := NewPaymentSheet(f, "Home", []string{"C"})

	row, err := sheet.ActiveRow()
	require.NoError(t, err)
	assert.Equal(t, 3, row)
}

func TestActiveRowNotFound(t *testing.T) {
	pinNow(t, testNow)
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Home"))
	require.NoError(t, f.SetCellValue("Home", "A1", "Date"))
	require.NoError(t, f.SetCellValue("Home", "A2", time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)))

	sheet := NewPaymentSheet(f, "Home", []string{"C"})
	row, err := sheet.ActiveRow()
	require.NoError(t, err)
	assert.Equal(t, -1, row)
}

func TestPopulateCategoriesBuildsHistory(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	sheet := NewPaymentSheet(f, "Home", []string{"C"})

	require.NoError(t, sheet.PopulateCategories(3))

	cat, ok := sheet.Categories()["Rent"]
	require.True(t, ok)
	assert.Equal(t, "C", cat.Column)
	assert.Equal(t, DefaultIcon, cat.Icon)
	require.Len(t, cat.Payments, 2)

	current, ok := cat.Payments[YearMonth{Year: 2026, Month: time.August}]
	require.True(t, ok)
	assert.Equal(t, "1500", current.Amount.String())
	assert.False(t, current.Paid)
	assert.Equal(t, 3, current.Row)

	previous, ok := cat.Payments[YearMonth{Year: 2026, Month: time.July}]
	require.True(t, ok)
	assert.True(t, previous.Paid)
	assert.Equal(t, 2, previous.Row)

	// Current month pending: attention fill. July paid: settled fill.
	assertFill(t, f, "Home", "C3", colorAttention)
	assertFill(t, f, "Home", "C2", colorSettled)
	// Active row highlight on the date and sum cells.
	assertFill(t, f, "Home", "A3", colorAttention)
	assertFill(t, f, "Home", "A2", colorSettled)
}

func TestPopulateCategoriesHeaderIcon(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	require.NoError(t, f.AddComment("Home", excelize.Comment{
		Cell:      "C1",
		Author:    "paybook",
		Paragraph: []excelize.RichTextRun{{Text: "fa-home"}},
	}))
	sheet := NewPaymentSheet(f, "Home", []string{"C"})

	require.NoError(t, sheet.PopulateCategories(3))
	assert.Equal(t, "fa-home", sheet.Categories()["Rent"].Icon)
}

func TestPopulateCategoriesUnparseablePaidFlag(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	require.NoError(t, f.SetCellValue("Home", "D3", "maybe"))
	sheet := NewPaymentSheet(f, "Home", []string{"C"})

	require.NoError(t, sheet.PopulateCategories(3))
	current := sheet.Categories()["Rent"].Payments[YearMonth{Year: 2026, Month: time.August}]
	assert.False(t, current.Paid)
}

func TestFormatPaymentOverdue(t *testing.T) {
	// Pin past the due date so the unpaid current-month payment is overdue.
	pinNow(t, time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC))
	f := newTestSheet(t)
	sheet := NewPaymentSheet(f, "Home", []string{"C"})

	require.NoError(t, sheet.PopulateCategories(3))
	assertFill(t, f, "Home", "C3", colorAlert)
	assertFill(t, f, "Home", "D3", colorAlert)
	assertFill(t, f, "Home", "E3", colorAlert)
}

func TestPopulateNextMonth(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	sheet := NewPaymentSheet(f, "Home", []string{"C"})
	require.NoError(t, sheet.PopulateCategories(3))

	require.NoError(t, sheet.PopulateNextMonth(3))

	// Date cell: first of September.
	date, ok, err := readCellDate(f, "Home", "A4")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, sameDay(date, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)))

	// Sum formula over the monitored columns. The stored string must not
	// carry a leading "=": excelize persists it verbatim into the sheet
	// XML, and Excel rejects a <f> element with the prefix.
	formula, err := f.GetCellFormula("Home", "B4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(C4)", formula)

	// Seeded triplet: amount copied, unpaid, due date advanced one month.
	amount, err := readCellDecimal(f, "Home", "C4")
	require.NoError(t, err)
	assert.Equal(t, "1500", amount.String())
	paid, err := readCellBool(f, "Home", "D4")
	require.NoError(t, err)
	assert.False(t, paid)
	due, ok, err := readCellDate(f, "Home", "E4")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, sameDay(due, time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)))

	// All projected cells carry the neutral fill.
	for _, ref := range []string{"A4", "B4", "C4", "D4", "E4"} {
		assertFill(t, f, "Home", ref, colorProjected)
	}
}

func TestPopulateNextMonthIdempotent(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	sheet := NewPaymentSheet(f, "Home", []string{"C"})
	require.NoError(t, sheet.PopulateCategories(3))
	require.NoError(t, sheet.PopulateNextMonth(3))

	// Make the seeded row distinguishable from a fresh re-seed.
	require.NoError(t, f.SetCellValue("Home", "C4", 1750.0))

	require.NoError(t, sheet.PopulateNextMonth(3))

	amount, err := readCellDecimal(f, "Home", "C4")
	require.NoError(t, err)
	assert.Equal(t, "1750", amount.String())
	formula, err := f.GetCellFormula("Home", "B4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(C4)", formula)
}

func TestSumFormulaPersistsWithoutEqualsPrefix(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	sheet := NewPaymentSheet(f, "Home", []string{"C"})
	require.NoError(t, sheet.PopulateCategories(3))
	require.NoError(t, sheet.PopulateNextMonth(3))

	// Check the formula as persisted, not just the in-memory cell.
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	reopened, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer reopened.Close()

	formula, err := reopened.GetCellFormula("Home", "B4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(C4)", formula)
}

func TestPopulateNextMonthInconsistentDate(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	// Next row already holds a date that is not the first of next month.
	require.NoError(t, f.SetCellValue("Home", "A4", time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)))
	sheet := NewPaymentSheet(f, "Home", []string{"C"})
	require.NoError(t, sheet.PopulateCategories(3))

	require.NoError(t, sheet.PopulateNextMonth(3))

	// Rollover refused: no formula, no seeded cells.
	formula, err := f.GetCellFormula("Home", "B4")
	require.NoError(t, err)
	assert.Empty(t, formula)
	empty, err := cellEmpty(f, "Home", "C4")
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestPopulateNextMonthClampsDueDate(t *testing.T) {
	pinNow(t, testNow)
	f := newTestSheet(t)
	// Due on the 31st: September only has 30 days.
	require.NoError(t, f.SetCellValue("Home", "E3", time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)))
	sheet := NewPaymentSheet(f, "Home", []string{"C"})
	require.NoError(t, sheet.PopulateCategories(3))

	require.NoError(t, sheet.PopulateNextMonth(3))

	due, ok, err := readCellDate(f, "Home", "E4")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, sameDay(due, time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)))
}
