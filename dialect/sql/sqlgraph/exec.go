package sqlgraph

import (
	"context"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dialect/sql"
)

// Exec runs a statement that returns no rows. Arguments are bound for the
// dialect of drv. Driver failures are wrapped in ExecutionError, and
// constraint violations additionally in ConstraintError.
func Exec(ctx context.Context, drv dialect.ExecQuerier, op, query string, args []any) (sql.Result, error) {
	var res sql.Result
	if err := drv.Exec(ctx, query, coerce.BindAll(args, dialect.Of(drv)), &res); err != nil {
		return nil, wrapErr(op, query, err)
	}
	return res, nil
}

// Query runs a statement that returns rows. The caller closes the rows.
func Query(ctx context.Context, drv dialect.ExecQuerier, op, query string, args []any) (*sql.Rows, error) {
	rows := &sql.Rows{}
	if err := drv.Query(ctx, query, coerce.BindAll(args, dialect.Of(drv)), rows); err != nil {
		return nil, wrapErr(op, query, err)
	}
	return rows, nil
}

// Affected returns the affected-row count of res.
func Affected(op, query string, res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, reposql.NewExecutionError(op, query, err)
	}
	return n, nil
}

func wrapErr(op, query string, err error) error {
	exec := reposql.NewExecutionError(op, query, err)
	if IsConstraintError(err) {
		return reposql.NewConstraintError(err.Error(), exec)
	}
	return exec
}
