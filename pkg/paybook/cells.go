package paybook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// rawOpts asks excelize for the stored cell value (an Excel serial number
// for dates) instead of the number-format rendering.
var rawOpts = excelize.Options{RawCellValue: true}

// dateLayouts are fallbacks for date cells stored as plain strings.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/06 15:04",
	"01-02-06",
}

func cellRef(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func cellRefAt(colIdx, row int) string {
	ref, _ := excelize.CoordinatesToCellName(colIdx, row)
	return ref
}

// cellEmpty reports whether a cell holds neither a value nor a formula.
func cellEmpty(f *excelize.File, sheet, ref string) (bool, error) {
	raw, err := f.GetCellValue(sheet, ref, rawOpts)
	if err != nil {
		return false, err
	}
	if raw != "" {
		return false, nil
	}
	formula, err := f.GetCellFormula(sheet, ref)
	if err != nil {
		return false, err
	}
	return formula == "", nil
}

// readCellDate reads a date cell. The second return value is false when the
// cell is empty. Serial numbers are converted through the 1900 date system;
// string-typed cells fall back to a set of common layouts.
func readCellDate(f *excelize.File, sheet, ref string) (time.Time, bool, error) {
	raw, err := f.GetCellValue(sheet, ref, rawOpts)
	if err != nil {
		return time.Time{}, false, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("cell %s!%s: %w", sheet, ref, err)
		}
		return t, true, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("cell %s!%s: cannot parse %q as a date", sheet, ref, raw)
}

// readCellBool interprets a paid-flag cell. Anything that is not clearly
// truthy (a non-zero number or a boolean literal) reads as false.
func readCellBool(f *excelize.File, sheet, ref string) (bool, error) {
	raw, err := f.GetCellValue(sheet, ref, rawOpts)
	if err != nil {
		return false, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n != 0, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, nil
	}
	return false, nil
}

// readCellDecimal parses an amount cell.
func readCellDecimal(f *excelize.File, sheet, ref string) (decimal.Decimal, error) {
	raw, err := f.GetCellValue(sheet, ref, rawOpts)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("cell %s!%s: %w", sheet, ref, err)
	}
	return d, nil
}

// copyCellStyle applies the source cell's style (number format, font,
// border, fill) to the destination cell.
func copyCellStyle(f *excelize.File, sheet, src, dst string) error {
	styleID, err := f.GetCellStyle(sheet, src)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, dst, dst, styleID)
}

// fillCell overlays a solid fill color on a cell while keeping its number
// format, font and border. Excel styles are whole-cell records, so the
// existing style is rewritten with only the fill replaced.
func fillCell(f *excelize.File, sheet, ref, color string) error {
	styleID, err := f.GetCellStyle(sheet, ref)
	if err != nil {
		return err
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return err
	}
	style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	newID, err := f.NewStyle(style)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, ref, ref, newID)
}
