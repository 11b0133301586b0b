package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dialect/sql"
)

// dbFlags selects and wraps the database connection of a command.
type dbFlags struct {
	driver string
	dsn    string
	slow   time.Duration
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "driver", "sqlite", "database/sql driver: sqlite, mysql, postgres or pgx")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "data source name")
	cmd.Flags().DurationVar(&f.slow, "slow", 0, "log statements slower than this duration")
	_ = cmd.MarkFlagRequired("dsn")
}

// open connects to the database. Statements are logged at debug level
// when verbose is set, and slow statements are reported when --slow is set.
func (f *dbFlags) open(g *globals) (dialect.Driver, error) {
	drv, err := sql.Open(f.driver, f.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.driver, err)
	}
	if err := drv.DB().Ping(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("connect %s: %w", f.driver, err)
	}
	var d dialect.Driver = drv
	if g.verbose {
		d = sql.NewDebugDriver(d, g.log)
	}
	if f.slow > 0 {
		d = sql.NewStatsDriver(d, sql.WithSlowThreshold(f.slow), sql.WithSlowQueryLog(g.log))
	}
	return d, nil
}
