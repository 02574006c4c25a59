// Package errors provides standardized error types for pipeline operations.
// This package defines PipelineError for consistent error handling across
// loading, cleaning, encoding and model selection, with operation context,
// an error kind and error wrapping support.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a PipelineError.
type Kind int

const (
	// KindInternal is an unexpected failure inside an operation.
	KindInternal Kind = iota
	// KindDecode means no candidate text encoding could decode the input.
	KindDecode
	// KindSchema means a required column is absent or holds unusable values.
	KindSchema
	// KindConfig means an invalid hyperparameter grid or configuration value.
	KindConfig
	// KindInsufficientData means too few rows for the requested operation.
	KindInsufficientData
	// KindValidation means an invalid argument or state transition.
	KindValidation
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindSchema:
		return "schema"
	case KindConfig:
		return "config"
	case KindInsufficientData:
		return "insufficient data"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// PipelineError represents standardized errors across all pipeline stages
type PipelineError struct {
	Kind    Kind   // Error classification
	Op      string // Operation name (e.g., "Load", "Clean", "Search")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	var msg string
	if e.Column != "" {
		msg = fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		msg = fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
// A target carrying only a Kind (the Err* sentinels) matches every error of
// that kind; otherwise Kind, Op, Column and Message must all match.
func (e *PipelineError) Is(target error) bool {
	pe, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	if pe.Op == "" && pe.Column == "" && pe.Message == "" {
		return e.Kind == pe.Kind
	}
	return e.Kind == pe.Kind && e.Op == pe.Op && e.Column == pe.Column && e.Message == pe.Message
}

// Sentinels for errors.Is checks by kind.
var (
	ErrDecode           = &PipelineError{Kind: KindDecode}
	ErrSchema           = &PipelineError{Kind: KindSchema}
	ErrConfig           = &PipelineError{Kind: KindConfig}
	ErrInsufficientData = &PipelineError{Kind: KindInsufficientData}
	ErrValidation       = &PipelineError{Kind: KindValidation}
)

// Common error constructors for consistent error creation

// NewDecodeError creates an error listing every encoding that was attempted
func NewDecodeError(op string, attempted []string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindDecode,
		Op:      op,
		Message: fmt.Sprintf("unable to decode the file with encodings [%s]", strings.Join(attempted, ", ")),
		Cause:   cause,
	}
}

// NewColumnNotFoundError creates a schema error for a required column that is absent
func NewColumnNotFoundError(op, column string) *PipelineError {
	return &PipelineError{
		Kind:    KindSchema,
		Op:      op,
		Column:  column,
		Message: "missing required column",
	}
}

// NewSchemaError creates a schema error for a column holding unusable values
func NewSchemaError(op, column, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindSchema,
		Op:      op,
		Column:  column,
		Message: message,
	}
}

// NewConfigError creates an error for invalid configuration or grids
func NewConfigError(op, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindConfig,
		Op:      op,
		Message: message,
	}
}

// NewInsufficientDataError creates an error for too few rows
func NewInsufficientDataError(op string, rows, required int) *PipelineError {
	return &PipelineError{
		Kind:    KindInsufficientData,
		Op:      op,
		Message: fmt.Sprintf("need at least %d rows, got %d", required, rows),
	}
}

// NewNoObservedValuesError creates an error for a column with nothing to impute from
func NewNoObservedValuesError(op, column string) *PipelineError {
	return &PipelineError{
		Kind:    KindInsufficientData,
		Op:      op,
		Column:  column,
		Message: "no observed values to impute from",
	}
}

// NewValidationError creates an error for input validation failures
func NewValidationError(op, column, message string) *PipelineError {
	return &PipelineError{
		Kind:    KindValidation,
		Op:      op,
		Column:  column,
		Message: message,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindInternal,
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrNotFitted indicates use of an estimator or encoder before Fit
	ErrNotFitted = &PipelineError{
		Kind:    KindValidation,
		Op:      "validation",
		Message: "not fitted",
	}
)
