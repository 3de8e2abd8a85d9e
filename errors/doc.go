// Package errors provides unified error handling for fixkit.
// It implements structured error types with machine-readable codes and
// retryable detection, so suites can branch on failure kind instead of
// matching error strings.
package errors
