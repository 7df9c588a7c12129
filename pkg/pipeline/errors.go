package pipeline

import "fmt"

// ValidationError reports a malformed record: a negative metric field, a
// missing required field, or a lifecycle violation such as finalizing a
// unit twice. Validation failures are rejected synchronously and nothing
// is partially recorded.
type ValidationError struct {
	Field   string // Offending field, e.g. "duration_ms"
	Message string // Human-readable description
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// StorageError reports a durable append or read failure. Cached records
// stay visible and appends are retried on the next write, so ingestion
// callers never see this error; it surfaces through Flush, Cleanup and
// window reads.
type StorageError struct {
	Op    string // Operation that failed ("append", "read", "cleanup", ...)
	Path  string // File or directory involved
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [op=%s, path=%s]: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(op, path string, cause error) *StorageError {
	return &StorageError{
		Op:    op,
		Path:  path,
		Cause: cause,
	}
}

// ExportError reports a failure while exporting records to an output
// format.
type ExportError struct {
	Format      string // Export format ("json", "csv", ...)
	RecordCount int    // Number of records written or attempted
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, record_count=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{
		Format:      format,
		RecordCount: recordCount,
		Cause:       cause,
	}
}

// InsufficientDataError reports that an operation needed more samples than
// were available, e.g. establishing a baseline from too few units. It is
// recoverable: the caller may retry once more data has been recorded.
type InsufficientDataError struct {
	Op        string // Operation that was attempted ("establish", "analyze")
	Required  int    // Minimum samples needed
	Available int    // Samples actually present
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: have %d samples, need %d", e.Op, e.Available, e.Required)
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(op string, required, available int) *InsufficientDataError {
	return &InsufficientDataError{
		Op:        op,
		Required:  required,
		Available: available,
	}
}
