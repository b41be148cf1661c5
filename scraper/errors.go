package scraper

import (
	"errors"
	"fmt"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

var (
	// ErrPropertyNotFound means the search never produced a property link.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrNoPricingData means the detail page never showed a valid pricing table.
	ErrNoPricingData = errors.New("no pricing data available")
	// ErrTableMissing is the per-date variant of ErrNoPricingData.
	ErrTableMissing = errors.New("pricing table not found")
)

// PerDateError explains why one date produced no rooms. It never aborts a range.
type PerDateError struct {
	Date string
	Err  error
}

func (e *PerDateError) Error() string {
	return fmt.Sprintf("date %s: %v", e.Date, e.Err)
}

func (e *PerDateError) Unwrap() error { return e.Err }

// RangeError is reported when a range worker stops before finishing its dates.
type RangeError struct {
	Range models.SubRange
	Err   error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range [%d,%d): %v", e.Range.StartOffset, e.Range.EndOffset, e.Err)
}

func (e *RangeError) Unwrap() error { return e.Err }
