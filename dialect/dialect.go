package dialect

import "context"

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL,
	// INSERT or UPDATE. It scans the result into the pointer v. For SQL drivers,
	// it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for repository
// clients. The driver owns the connection pool: acquire, release and close.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Dialecter is implemented by executors that know their SQL dialect. The
// repository uses it to pick placeholder style and value binding.
type Dialecter interface {
	Dialect() string
}

// Of returns the dialect of the given executor, or the empty string.
func Of(v any) string {
	if d, ok := v.(Dialecter); ok {
		return d.Dialect()
	}
	return ""
}
