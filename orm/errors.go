package orm

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/fixkit/errors"
)

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// IsConnectionError reports whether err looks like a connectivity failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"database is locked",
		"driver: bad connection",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsRetryableError reports whether the operation is worth retrying.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionError(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "too many connections")
}

// FromDatabase converts a raw database error into a typed application error,
// preserving the cause for unwrapping. model names the entity the operation
// was acting on.
func FromDatabase(err error, model string) error {
	if err == nil {
		return nil
	}

	switch {
	case IsNotFound(err):
		return apperrors.NotFound(model).WithCause(err)
	case IsDuplicate(err):
		return apperrors.AlreadyExists(model).WithCause(err)
	case IsConnectionError(err):
		return apperrors.ConnectionFailed("database").WithCause(err)
	default:
		return apperrors.DatabaseError(err)
	}
}
