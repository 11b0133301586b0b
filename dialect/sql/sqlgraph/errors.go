package sqlgraph

import (
	"errors"
	"strings"

	"github.com/syssam/reposql"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	var e reposql.ConstraintError
	return errors.As(err, &e) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// errorCoder is an interface for database errors that provide error codes.
// Implemented by: pq.Error, pgx, modernc.org/sqlite, etc.
type errorCoder interface {
	Code() string
}

// errorNumberer is an interface for database errors that provide numeric error codes.
type errorNumberer interface {
	Number() uint16
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pq.Error, pgx, and some MySQL drivers.
type sqlStateError interface {
	SQLState() string
}

// violation describes how each supported driver reports one kind of
// constraint violation.
type violation struct {
	sqlState string   // PostgreSQL class 23 code
	mysql    []uint16 // MySQL error numbers
	text     []string // message fragments for drivers without codes
}

var (
	uniqueViolation = violation{
		sqlState: "23505",
		mysql:    []uint16{1062},
		text:     []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	}
	foreignKeyViolation = violation{
		sqlState: "23503",
		mysql:    []uint16{1451, 1452},
		text:     []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	}
	checkViolation = violation{
		sqlState: "23514",
		mysql:    []uint16{3819},
		text:     []string{"Error 3819", "violates check constraint", "CHECK constraint failed"},
	}
	notNullViolation = violation{
		sqlState: "23502",
		mysql:    []uint16{1048, 1364},
		text:     []string{"Error 1048", "Error 1364", "violates not-null constraint", "NOT NULL constraint failed"},
	}
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool { return uniqueViolation.match(err) }

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool { return foreignKeyViolation.match(err) }

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool { return checkViolation.match(err) }

// IsNotNullConstraintError reports if the error resulted from writing NULL
// into a NOT NULL column.
func IsNotNullConstraintError(err error) bool { return notNullViolation.match(err) }

func (v violation) match(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == v.sqlState {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == v.sqlState {
		return true
	}
	if e, ok := asError[errorNumberer](err); ok {
		for _, n := range v.mysql {
			if e.Number() == n {
				return true
			}
		}
	}
	return containsAny(err.Error(), v.text...)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
