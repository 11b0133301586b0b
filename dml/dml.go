// Package dml builds INSERT, UPDATE, DELETE and key-based SELECT statements
// from entity descriptors and entity values.
//
// All statements use "?" placeholders; dialect/sql rebinds them for
// PostgreSQL at execution time.
package dml

import (
	"context"
	"reflect"
	"strings"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/schema"
)

// Statement is a rendered statement and its bind arguments.
type Statement struct {
	SQL  string
	Args []any
	// AutoKey is the primary-key column the database generates on insert.
	// It is set when the single integer key of the entity is null.
	AutoKey *schema.Column
}

// Default is a column default literal and the type used to decode it.
type Default struct {
	Literal string
	Type    coerce.SQLType
}

// Defaults is a source of column defaults that takes precedence over the
// literals declared on the descriptor, typically the live database schema.
type Defaults interface {
	Default(ctx context.Context, table, column string) (Default, bool, error)
}

// Static is a fixed Defaults source keyed by table, then column.
type Static map[string]map[string]Default

// Default implements Defaults.
func (s Static) Default(_ context.Context, table, column string) (Default, bool, error) {
	d, ok := s[table][column]
	return d, ok, nil
}

// Insert builds the INSERT statement of entity. Every writable column is
// included in declaration order. A null value falls back to the column
// default, read from defaults first and from the descriptor second. A
// default reported by defaults that cannot be decoded is an expression the
// database evaluates itself, so the column is left out.
//
// On PostgreSQL a generated key is read back with RETURNING.
func Insert(ctx context.Context, d string, desc *schema.Descriptor, entity any, defaults Defaults) (*Statement, error) {
	if err := check(desc); err != nil {
		return nil, err
	}
	var (
		cols []string
		args []any
		auto *schema.Column
	)
	if len(desc.PrimaryKey) == 1 {
		if pk := desc.PrimaryKey[0]; pk.Type.IsInteger() && pk.Value(entity) == nil {
			auto = pk
		}
	}
	for _, c := range desc.Columns {
		if c.Ignored {
			continue
		}
		v := c.Value(entity)
		if v == nil {
			dv, ok, err := defaultValue(ctx, desc, c, defaults)
			if err != nil {
				return nil, err
			}
			switch {
			case !ok && c == auto:
				continue
			case !ok:
			case dv == omit:
				continue
			default:
				v = dv
			}
		}
		cols = append(cols, c.Name)
		args = append(args, v)
	}
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(desc.Table)
	switch {
	case len(cols) == 0 && d == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	case len(cols) == 0:
		b.WriteString(" DEFAULT VALUES")
	default:
		b.WriteString(" (")
		b.WriteString(strings.Join(cols, ", "))
		b.WriteString(") VALUES (")
		b.WriteString(placeholders(len(cols)))
		b.WriteString(")")
	}
	if auto != nil && d == dialect.Postgres {
		b.WriteString(" RETURNING ")
		b.WriteString(auto.Name)
	}
	return &Statement{SQL: b.String(), Args: args, AutoKey: auto}, nil
}

type omitted struct{}

// omit marks a default the database applies on its own.
var omit any = omitted{}

func defaultValue(ctx context.Context, desc *schema.Descriptor, c *schema.Column, defaults Defaults) (any, bool, error) {
	if defaults != nil {
		live, ok, err := defaults.Default(ctx, desc.Table, c.Name)
		if err != nil {
			return nil, false, err
		}
		if ok {
			v, err := coerce.DecodeDefault(live.Literal, live.Type)
			if err != nil {
				return omit, true, nil
			}
			return v, v != nil, nil
		}
	}
	if c.Default == nil {
		return nil, false, nil
	}
	v, err := coerce.DecodeDefault(*c.Default, c.Type)
	if err != nil {
		return nil, false, reposql.NewDecodeError(c.Name, *c.Default, err)
	}
	return v, v != nil, nil
}

// Update builds a partial UPDATE of entity: primary-key columns form the
// WHERE clause and null values are left out of the SET list. It returns
// ErrNothingToUpdate when no column qualifies.
func Update(desc *schema.Descriptor, entity any) (*Statement, error) {
	if err := check(desc); err != nil {
		return nil, err
	}
	var (
		sets []string
		args []any
	)
	for _, c := range desc.Columns {
		if c.PrimaryKey || c.Ignored {
			continue
		}
		v := c.Value(entity)
		if v == nil {
			continue
		}
		sets = append(sets, c.Name+" = ?")
		args = append(args, v)
	}
	if len(sets) == 0 {
		return nil, reposql.ErrNothingToUpdate
	}
	key := desc.Key(entity)
	for i, v := range key {
		if v == nil {
			return nil, reposql.NewBindingError(desc.PrimaryKey[i].Name, "null primary key value on update of %s", desc.Name)
		}
	}
	where, wargs := keyWhere(desc, "", key)
	return &Statement{
		SQL:  "UPDATE " + desc.Table + " SET " + strings.Join(sets, ", ") + " WHERE " + where,
		Args: append(args, wargs...),
	}, nil
}

// Delete builds the DELETE statement of entity by its primary key.
func Delete(desc *schema.Descriptor, entity any) (*Statement, error) {
	if err := check(desc); err != nil {
		return nil, err
	}
	return DeleteByKey(desc, desc.Key(entity)...)
}

// DeleteByKey builds a DELETE by primary-key values given in declaration
// order. A null key value renders as IS NULL and binds nothing.
func DeleteByKey(desc *schema.Descriptor, keys ...any) (*Statement, error) {
	where, args, err := byKey(desc, keys)
	if err != nil {
		return nil, err
	}
	return &Statement{SQL: "DELETE FROM " + desc.Table + " WHERE " + where, Args: args}, nil
}

// SelectByKey builds a SELECT of all columns by primary-key values.
func SelectByKey(desc *schema.Descriptor, keys ...any) (*Statement, error) {
	where, args, err := byKey(desc, keys)
	if err != nil {
		return nil, err
	}
	return &Statement{SQL: selectList(desc) + " WHERE " + where, Args: args}, nil
}

// Exists builds a statement returning one row when a row with the given
// primary-key values exists.
func Exists(desc *schema.Descriptor, keys ...any) (*Statement, error) {
	where, args, err := byKey(desc, keys)
	if err != nil {
		return nil, err
	}
	return &Statement{SQL: "SELECT 1 FROM " + desc.Table + " WHERE " + where + " LIMIT 1", Args: args}, nil
}

// SelectAll builds a SELECT of all rows of the table.
func SelectAll(desc *schema.Descriptor) (*Statement, error) {
	if desc.Table == "" {
		return nil, reposql.NewConfigError(desc.Name, "missing table name")
	}
	return &Statement{SQL: selectList(desc)}, nil
}

func selectList(desc *schema.Descriptor) string {
	return "SELECT " + strings.Join(desc.ColumnNames(), ", ") + " FROM " + desc.Table
}

func byKey(desc *schema.Descriptor, keys []any) (string, []any, error) {
	if err := check(desc); err != nil {
		return "", nil, err
	}
	if len(keys) != len(desc.PrimaryKey) {
		return "", nil, reposql.NewBindingError(desc.Name, "expects %d key values, got %d", len(desc.PrimaryKey), len(keys))
	}
	where, args := keyWhere(desc, "", keys)
	return where, args, nil
}

// KeyWhere renders the primary-key condition for keys with every column
// qualified by alias, as used by joined selects. Null keys render IS NULL
// and take no argument.
func KeyWhere(desc *schema.Descriptor, alias string, keys ...any) (string, []any, error) {
	if _, _, err := byKey(desc, keys); err != nil {
		return "", nil, err
	}
	where, args := keyWhere(desc, alias, keys)
	return where, args, nil
}

func keyWhere(desc *schema.Descriptor, alias string, keys []any) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for i, c := range desc.PrimaryKey {
		name := c.Name
		if alias != "" {
			name = alias + "." + name
		}
		if isNull(keys[i]) {
			parts = append(parts, name+" IS NULL")
			continue
		}
		parts = append(parts, name+" = ?")
		args = append(args, keys[i])
	}
	return strings.Join(parts, " AND "), args
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func check(desc *schema.Descriptor) error {
	if desc == nil || desc.Table == "" {
		name := ""
		if desc != nil {
			name = desc.Name
		}
		return reposql.NewConfigError(name, "missing table name")
	}
	if len(desc.PrimaryKey) == 0 {
		return reposql.NewConfigError(desc.Name, "no primary key columns on %s", desc.Table)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
