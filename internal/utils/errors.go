package utils

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Custom error types
var (
	// ErrValidation is returned when configuration or input validation fails
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when a governed table or column does not exist
	ErrNotFound = errors.New("not found")

	// ErrStatement is returned when a corrective statement fails
	ErrStatement = errors.New("statement failed")

	// ErrNotConnected is returned when the database has not been opened
	ErrNotConnected = errors.New("database not connected")
)

// ValidationError represents an error that occurs during validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// MissingColumnError is returned when a column a rule must normalize does not exist.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %s.%s not found", e.Table, e.Column)
}

func (e *MissingColumnError) Unwrap() error {
	return ErrNotFound
}

// StatementError wraps a driver error with the statement that produced it.
// Both ErrStatement and the driver error are reachable through errors.Is/As.
type StatementError struct {
	Table     string
	Column    string
	Statement string
	Cause     error
}

func (e *StatementError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("statement on %s.%s failed: %v", e.Table, e.Column, e.Cause)
	}
	return fmt.Sprintf("statement on %s.%s failed", e.Table, e.Column)
}

func (e *StatementError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrStatement}
	}
	return []error{ErrStatement, e.Cause}
}

// Error wrapping functions

// WrapValidationError wraps an error as a validation error
func WrapValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// WrapStatementError attaches the failing statement to a driver error
func WrapStatementError(table, column, statement string, cause error) error {
	return &StatementError{
		Table:     table,
		Column:    column,
		Statement: statement,
		Cause:     cause,
	}
}

// Error checking functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStatementError checks if an error came from a corrective statement
func IsStatementError(err error) bool {
	return errors.Is(err, ErrStatement)
}

// SQLState returns the Postgres SQLSTATE code carried by err, or "" when err
// did not come from the server.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Helper function to create a validation error for required fields
func RequiredFieldError(field string) error {
	return WrapValidationError(field, "field is required")
}

// Helper function to create a validation error for invalid field values
func InvalidFieldError(field, reason string) error {
	return WrapValidationError(field, reason)
}
