package reposql

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("reposql: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns multiple results.
	ErrNotSingular = errors.New("reposql: entity not singular")

	// ErrNothingToUpdate is returned by the update builder when every
	// non-key column of the instance is null.
	ErrNothingToUpdate = errors.New("reposql: nothing to update")

	// ErrMissingParameter is returned when a named placeholder has no value.
	ErrMissingParameter = errors.New("reposql: missing parameter")

	// ErrUnsupportedOperation is returned when a repository call matches
	// none of the dispatch rules.
	ErrUnsupportedOperation = errors.New("reposql: unsupported operation")
)

// ConfigError reports an invalid entity or repository configuration.
// Configuration errors are never retried.
type ConfigError struct {
	Entity string // Table or type the error refers to
	Reason string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("reposql: configuration error on %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("reposql: configuration error: %s", e.Reason)
}

// NewConfigError returns a new ConfigError.
func NewConfigError(entity, format string, args ...any) *ConfigError {
	return &ConfigError{Entity: entity, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError returns true if the error is a ConfigError or an
// UnsupportedOperationError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	var u *UnsupportedOperationError
	return errors.As(err, &e) || errors.As(err, &u)
}

// UnsupportedOperationError is returned when a repository call cannot be
// routed to any engine operation.
type UnsupportedOperationError struct {
	Entity string
	Method string
}

// Error returns the error string.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("reposql: unsupported operation %q on %s", e.Method, e.Entity)
}

// Is reports whether the target matches ErrUnsupportedOperation.
func (e *UnsupportedOperationError) Is(err error) bool {
	return err == ErrUnsupportedOperation
}

// NewUnsupportedOperationError returns a new UnsupportedOperationError.
func NewUnsupportedOperationError(entity, method string) *UnsupportedOperationError {
	return &UnsupportedOperationError{Entity: entity, Method: method}
}

// BindingError reports a value that could not be bound to a statement:
// a missing named parameter or an argument count that does not match
// the statement.
type BindingError struct {
	Name   string // Parameter, key or method name
	Reason string
	Err    error // Optional sentinel
}

// Error returns the error string.
func (e *BindingError) Error() string {
	return fmt.Sprintf("reposql: binding %q: %s", e.Name, e.Reason)
}

// Unwrap returns the underlying sentinel, if any.
func (e *BindingError) Unwrap() error {
	return e.Err
}

// NewBindingError returns a new BindingError.
func NewBindingError(name, format string, args ...any) *BindingError {
	return &BindingError{Name: name, Reason: fmt.Sprintf(format, args...)}
}

// NewMissingParameterError returns a BindingError wrapping ErrMissingParameter.
func NewMissingParameterError(name string) *BindingError {
	return &BindingError{Name: name, Reason: "no value supplied", Err: ErrMissingParameter}
}

// IsBindingError returns true if the error is a BindingError.
func IsBindingError(err error) bool {
	if err == nil {
		return false
	}
	var e *BindingError
	return errors.As(err, &e)
}

// DecodeError reports a value read from the database, or declared as a
// default, that could not be converted for its column.
type DecodeError struct {
	Column string
	Value  any
	Err    error
}

// Error returns the error string.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("reposql: decoding column %q (value %v): %v", e.Column, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError returns a new DecodeError.
func NewDecodeError(column string, value any, err error) *DecodeError {
	return &DecodeError{Column: column, Value: value, Err: err}
}

// IsDecodeError returns true if the error is a DecodeError.
func IsDecodeError(err error) bool {
	if err == nil {
		return false
	}
	var e *DecodeError
	return errors.As(err, &e)
}

// ExecutionError wraps a driver failure with the statement that caused it.
// The driver error is available through errors.Unwrap.
type ExecutionError struct {
	Op    string // "query" or "exec"
	Query string
	Err   error
}

// Error returns the error string.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("reposql: %s %q: %v", e.Op, e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError returns a new ExecutionError.
func NewExecutionError(op, query string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Query: query, Err: err}
}

// IsExecutionError returns true if the error is an ExecutionError.
func IsExecutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecutionError
	return errors.As(err, &e)
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the key that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("reposql: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("reposql: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the key that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the key that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a singular result
// but receives multiple results.
type NotSingularError struct {
	label string
	count int // Number of results returned (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("reposql: %s not singular (got %d results, expected 1)", e.label, e.count)
	}
	return fmt.Sprintf("reposql: %s not singular", e.label)
}

// Is reports whether the target error matches NotSingularError.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the result count.
func NewNotSingularErrorWithCount(label string, count int) *NotSingularError {
	return &NotSingularError{label: label, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("reposql: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "reposql: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("reposql: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
