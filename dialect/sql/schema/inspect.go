// Package schema reads column metadata from a live database and checks
// entity descriptors against it. The Inspector also serves live column
// defaults to insert builders.
package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dialect/sql/sqlgraph"
	"github.com/syssam/reposql/dml"
)

// ColumnInfo describes a column as reported by the database.
type ColumnInfo struct {
	Name string `yaml:"name"`
	// Type is the declared type name, e.g. "VARCHAR(255)" or "int4".
	Type       string         `yaml:"type"`
	SQLType    coerce.SQLType `yaml:"-"`
	Default    *string        `yaml:"default,omitempty"`
	Nullable   bool           `yaml:"nullable"`
	PrimaryKey bool           `yaml:"primary_key,omitempty"`
}

const (
	sqliteColumns = `SELECT name, type, dflt_value, "notnull" = 0, pk > 0 FROM pragma_table_info(?) ORDER BY cid`

	postgresColumns = `SELECT c.column_name, c.data_type, c.column_default, c.is_nullable = 'YES', EXISTS (` +
		`SELECT 1 FROM information_schema.table_constraints tc ` +
		`JOIN information_schema.key_column_usage k ON k.constraint_name = tc.constraint_name AND k.table_schema = tc.table_schema AND k.table_name = tc.table_name ` +
		`WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = c.table_schema AND tc.table_name = c.table_name AND k.column_name = c.column_name) ` +
		`FROM information_schema.columns c WHERE c.table_schema = current_schema() AND c.table_name = ? ORDER BY c.ordinal_position`

	mysqlColumns = `SELECT column_name, column_type, column_default, is_nullable = 'YES', column_key = 'PRI' ` +
		`FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`
)

// Inspector reads table columns from a live database. Results are cached
// per table until Invalidate is called. It is safe for concurrent use.
type Inspector struct {
	drv     dialect.ExecQuerier
	dialect string
	group   singleflight.Group
	mu      sync.RWMutex
	tables  map[string][]*ColumnInfo
}

// NewInspector returns an inspector over drv. The dialect of drv selects
// the catalog query.
func NewInspector(drv dialect.ExecQuerier) (*Inspector, error) {
	d := dialect.Of(drv)
	switch d {
	case dialect.SQLite, dialect.Postgres, dialect.MySQL:
	default:
		return nil, fmt.Errorf("dialect/sql/schema: unsupported dialect %q", d)
	}
	return &Inspector{drv: drv, dialect: d, tables: make(map[string][]*ColumnInfo)}, nil
}

// Columns returns the columns of table in declaration order. A table
// without columns does not exist and yields a ConfigError.
func (i *Inspector) Columns(ctx context.Context, table string) ([]*ColumnInfo, error) {
	i.mu.RLock()
	cols, ok := i.tables[table]
	i.mu.RUnlock()
	if ok {
		return cols, nil
	}
	v, err, _ := i.group.Do(table, func() (any, error) {
		cols, err := i.load(ctx, table)
		if err != nil {
			return nil, err
		}
		i.mu.Lock()
		i.tables[table] = cols
		i.mu.Unlock()
		return cols, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*ColumnInfo), nil
}

// Column returns the column of table with the given name, compared
// case-insensitively.
func (i *Inspector) Column(ctx context.Context, table, name string) (*ColumnInfo, bool, error) {
	cols, err := i.Columns(ctx, table)
	if err != nil {
		return nil, false, err
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return c, true, nil
		}
	}
	return nil, false, nil
}

// Default implements dml.Defaults with the defaults reported by the
// database.
func (i *Inspector) Default(ctx context.Context, table, column string) (dml.Default, bool, error) {
	c, ok, err := i.Column(ctx, table, column)
	if err != nil || !ok || c.Default == nil {
		return dml.Default{}, false, err
	}
	return dml.Default{Literal: *c.Default, Type: c.SQLType}, true, nil
}

// Invalidate drops the cached columns of the given tables, or of every
// table when none is given.
func (i *Inspector) Invalidate(tables ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(tables) == 0 {
		i.tables = make(map[string][]*ColumnInfo)
		return
	}
	for _, t := range tables {
		delete(i.tables, t)
	}
}

func (i *Inspector) load(ctx context.Context, table string) ([]*ColumnInfo, error) {
	var query string
	switch i.dialect {
	case dialect.SQLite:
		query = sqliteColumns
	case dialect.Postgres:
		query = postgresColumns
	default:
		query = mysqlColumns
	}
	rows, err := sqlgraph.Query(ctx, i.drv, "inspect", query, []any{table})
	if err != nil {
		return nil, err
	}
	recs, err := sqlgraph.ScanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, reposql.NewConfigError("", "table %s does not exist", table)
	}
	cols := make([]*ColumnInfo, len(recs))
	for n, rec := range recs {
		vals := rec.Values()
		c := &ColumnInfo{}
		if err := coerce.Assign(&c.Name, vals[0]); err != nil {
			return nil, reposql.NewDecodeError("name", vals[0], err)
		}
		if err := coerce.Assign(&c.Type, vals[1]); err != nil {
			return nil, reposql.NewDecodeError("type", vals[1], err)
		}
		if err := coerce.Assign(&c.Default, vals[2]); err != nil {
			return nil, reposql.NewDecodeError("default", vals[2], err)
		}
		if err := coerce.Assign(&c.Nullable, vals[3]); err != nil {
			return nil, reposql.NewDecodeError("nullable", vals[3], err)
		}
		if err := coerce.Assign(&c.PrimaryKey, vals[4]); err != nil {
			return nil, reposql.NewDecodeError("primary_key", vals[4], err)
		}
		c.SQLType = coerce.ParseType(c.Type)
		cols[n] = c
	}
	return cols, nil
}
