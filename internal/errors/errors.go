// Package errors provides structured error types for mission control.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnknownType  = errors.New("unknown suggestion type")
	ErrInvalidInput = errors.New("invalid input")
	ErrTimeout      = errors.New("operation timed out")
	ErrUnavailable  = errors.New("service unavailable")
	ErrDemoModeOnly = errors.New("operation only available in demo mode")
)

// StoreError represents a failed store operation.
type StoreError struct {
	Op    string // e.g. "suggestions.decide"
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("store %s (%s): %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps a driver error with operation context.
func NewStoreError(op, table string, err error) *StoreError {
	return &StoreError{Op: op, Table: table, Err: err}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
// SQLite reports write contention as "database is locked" / "database is busy".
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		msg := storeErr.Err.Error()
		if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database is busy") {
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}
