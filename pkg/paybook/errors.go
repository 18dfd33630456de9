package paybook

import (
	"errors"
	"fmt"
)

// ErrNotLoaded indicates a save was attempted before Load.
var ErrNotLoaded = errors.New("workbook not loaded")

// ErrInvalidWorkbook indicates the input bytes are not a readable workbook.
var ErrInvalidWorkbook = errors.New("invalid workbook")

// SheetError reports a failure while populating one monitored sheet.
type SheetError struct {
	Sheet string
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q: %v", e.Sheet, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}
