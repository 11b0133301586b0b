package sqlgraph

import (
	"fmt"
	"strings"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/dialect/sql"
	"github.com/syssam/reposql/schema"
)

// ScanEntities materializes every row into a new entity of desc and closes
// rows. Result columns are matched to descriptor columns by name, exactly
// first and then case-insensitively; unmatched result columns are ignored.
func ScanEntities(rows *sql.Rows, desc *schema.Descriptor) (_ []any, err error) {
	defer closeRows(rows, &err)
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	cols := make([]*schema.Column, len(names))
	for i, n := range names {
		if c, ok := desc.Column(n); ok {
			cols[i] = c
		}
	}
	var out []any
	for rows.Next() {
		vals, err := scanRow(rows, len(names))
		if err != nil {
			return nil, err
		}
		e := desc.New()
		for i, c := range cols {
			if c == nil {
				continue
			}
			if err := c.Assign(e, vals[i]); err != nil {
				return nil, err
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ScanRecords materializes every row into an ordered record whose keys are
// the result columns in driver order, and closes rows. Text returned as
// bytes is converted to string unless the column has a binary type.
func ScanRecords(rows *sql.Rows) (_ []*reposql.Record, err error) {
	defer closeRows(rows, &err)
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	binary := binaryColumns(rows, len(names))
	var out []*reposql.Record
	for rows.Next() {
		vals, err := scanRow(rows, len(names))
		if err != nil {
			return nil, err
		}
		rec := reposql.NewRecord(len(names))
		for i, n := range names {
			rec.Set(n, textValue(vals[i], binary[i]))
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ScanScalars returns the first column of every row and closes rows.
func ScanScalars(rows *sql.Rows) (_ []any, err error) {
	defer closeRows(rows, &err)
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("sqlgraph: scalar query returned no columns")
	}
	binary := binaryColumns(rows, len(names))
	var out []any
	for rows.Next() {
		vals, err := scanRow(rows, len(names))
		if err != nil {
			return nil, err
		}
		out = append(out, textValue(vals[0], binary[0]))
	}
	return out, rows.Err()
}

func scanRow(rows *sql.Rows, n int) ([]any, error) {
	vals := make([]any, n)
	dest := make([]any, n)
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("sqlgraph: scan: %w", err)
	}
	return vals, nil
}

func binaryColumns(rows *sql.Rows, n int) []bool {
	binary := make([]bool, n)
	types, err := rows.ColumnTypes()
	if err != nil || len(types) != n {
		return binary
	}
	for i, ct := range types {
		switch coerce.ParseType(ct.DatabaseTypeName()) {
		case coerce.TypeBinary, coerce.TypeVarBinary, coerce.TypeBlob:
			binary[i] = true
		}
	}
	return binary
}

func textValue(v any, binary bool) any {
	if b, ok := v.([]byte); ok && !binary {
		return string(b)
	}
	return v
}

// closeRows closes rows and keeps the first error.
func closeRows(rows *sql.Rows, err *error) {
	if cerr := rows.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

// keyString returns the identity of a primary-key projection. Values are
// compared by their text so that []byte and string keys agree.
func keyString(vals []any) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(0)
		}
		if bs, ok := v.([]byte); ok {
			v = string(bs)
		}
		fmt.Fprintf(&b, "%v", v)
	}
	return b.String()
}
