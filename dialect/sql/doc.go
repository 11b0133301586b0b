// Package sql adapts database/sql to the dialect.Driver contract.
//
// Statements reach this package with "?" placeholders. Conn rewrites them to
// the positional form of the target database (only PostgreSQL needs "$1",
// "$2", ...) right before execution, so every layer above it renders one
// placeholder style.
//
// # Opening a Driver
//
//	drv, err := sql.Open("pgx", "postgres://localhost/app")
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
// The dialect is derived from the database/sql driver name (see DialectOf):
// "pgx" and "postgres" map to PostgreSQL, "sqlite" and "sqlite3" to SQLite.
// An already configured *sql.DB can be wrapped with OpenDB.
//
// # Transactions
//
//	tx, err := drv.Tx(ctx)
//	if err != nil {
//	    return err
//	}
//	if err := tx.Exec(ctx, "UPDATE users SET name = ? WHERE id = ?", []any{"a8m", 1}, nil); err != nil {
//	    return errors.Join(err, tx.Rollback())
//	}
//	return tx.Commit()
//
// # Instrumentation
//
// Two decorators wrap any dialect.Driver:
//
//	drv := sql.NewStatsDriver(base,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(slog.Default()),
//	)
//	fmt.Println(drv.QueryStats().Stats())
//
//	dbg := sql.NewDebugDriver(base, logger) // logs every statement at debug level
//
// Statement execution helpers, row scanning and the association loader live
// in the sqlgraph subpackage. Live schema inspection lives in schema.
package sql
