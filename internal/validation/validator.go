// Package validation provides reusable input validators for pipeline stages.
// Every validator reports failures as *errors.PipelineError so callers can
// match them by kind.
package validation

import (
	"fmt"

	"github.com/paveg/appraise/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
	Width() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate reports the first missing column in the order given.
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// LengthValidator validates length consistency, such as feature rows
// against target values.
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewValidationError(v.op, "", message)
	}
	return nil
}

// MinRowsValidator validates that a table holds at least min rows.
type MinRowsValidator struct {
	df  ColumnProvider
	min int
	op  string
}

// NewMinRowsValidator creates a validator for row count checks
func NewMinRowsValidator(df ColumnProvider, minRows int, op string) *MinRowsValidator {
	return &MinRowsValidator{
		df:  df,
		min: minRows,
		op:  op,
	}
}

// Validate checks the row count
func (v *MinRowsValidator) Validate() error {
	if v.df.Len() < v.min {
		return errors.NewInsufficientDataError(v.op, v.df.Len(), v.min)
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}

// ValidateMinRows is a convenience function for row count validation
func ValidateMinRows(df ColumnProvider, minRows int, op string) error {
	return NewMinRowsValidator(df, minRows, op).Validate()
}
