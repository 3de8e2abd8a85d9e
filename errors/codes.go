package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeConnectionFailed indicates a failed connection to the database.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeDatabaseError indicates a database-level failure.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// Fixture errors
const (
	// ErrCodeNotFound indicates no persisted entity matched the criteria.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates a duplicate-key violation on persist.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeUnexpectedRecord indicates a record exists that a
	// verification expected to be absent.
	ErrCodeUnexpectedRecord ErrorCode = "UNEXPECTED_RECORD"
	// ErrCodeNoFactory indicates no data creator is registered for a model.
	ErrCodeNoFactory ErrorCode = "NO_FACTORY"
	// ErrCodeNotStarted indicates the module was used before Start or
	// after Stop.
	ErrCodeNotStarted ErrorCode = "NOT_STARTED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidPath indicates an association path that does not match
	// the model's schema.
	ErrCodeInvalidPath ErrorCode = "INVALID_PATH"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
	ErrCodeDatabaseError:    true,
}

// IsRetryableCode reports whether an error code is considered retryable.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
