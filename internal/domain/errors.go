package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes that are not tied to a
// specific input field.
var (
	// ErrModelUnavailable means the classifier artifact failed to load.
	// Fatal at startup; the process must refuse to serve.
	ErrModelUnavailable = errors.New("model artifact unavailable")

	// ErrNotFound covers both a record that does not exist and one the
	// caller does not own. The two cases are deliberately
	// indistinguishable to the client.
	ErrNotFound = errors.New("prediction not found or not authorized")
)

// ValidationError reports a rejected input. The message is always safe
// to show to the caller verbatim.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError for one field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PreprocessingError reports a structural failure while assembling the
// feature vector. Treated as a server fault: logged in full, returned
// to the caller generically.
type PreprocessingError struct {
	Step string
	Err  error
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("preprocessing failed at %s: %v", e.Step, e.Err)
}

func (e *PreprocessingError) Unwrap() error { return e.Err }

// AggregationError reports an analytics computation failure. The
// underlying record set is never affected.
type AggregationError struct {
	Operation string
	Err       error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation %q failed: %v", e.Operation, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// BatchRowError reports the first failing row of a bulk ingestion.
// Row is 1-based; rows accepted before it are not rolled back.
type BatchRowError struct {
	Row int
	Err error
}

func (e *BatchRowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *BatchRowError) Unwrap() error { return e.Err }
