// Package dialect defines the query-execution contract used by reposql.
//
// The engine never talks to database/sql directly. It renders SQL with "?"
// placeholders and hands it, together with the positional arguments, to an
// ExecQuerier. The dialect/sql package adapts a *sql.DB (or *sql.Tx) to this
// contract and rewrites placeholders for PostgreSQL.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// Connection pooling, acquire/release and shutdown belong to the driver. The
// repository only borrows it for the duration of one call.
//
// # Usage
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	users, err := repository.New[User](drv)
package dialect
