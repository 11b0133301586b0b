package sqlgraph

import (
	"context"
	"strings"

	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/schema"
)

// LoadSecondary loads every association of the given entities of desc with
// one query per association and parent, filtered by the parent's join
// values. A one-to-one association takes the first row; a one-to-many
// association takes all rows in primary-key order. A parent with a null
// join value gets an empty association without a query.
//
// Each sub-query's rows are closed before the next one runs, so callers must
// have finished reading the root result.
func LoadSecondary(ctx context.Context, drv dialect.ExecQuerier, desc *schema.Descriptor, entities []any) error {
	for _, a := range desc.Associations {
		t, err := a.Target()
		if err != nil {
			return err
		}
		query := secondarySelect(t, a)
		for _, parent := range entities {
			a.Reset(parent)
			args, ok := joinValues(desc, a, parent)
			if !ok {
				continue
			}
			rows, err := Query(ctx, drv, "query", query, args)
			if err != nil {
				return err
			}
			found, err := ScanEntities(rows, t)
			if err != nil {
				return err
			}
			if a.Kind == schema.OneToOne && len(found) > 1 {
				found = found[:1]
			}
			for _, child := range found {
				a.Attach(parent, child)
			}
		}
	}
	return nil
}

func secondarySelect(t *schema.Descriptor, a *schema.Association) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(t.ColumnNames(), ", "))
	b.WriteString(" FROM ")
	b.WriteString(t.Table)
	b.WriteString(" WHERE ")
	for i, p := range a.Pairs {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(p.Foreign + " = ?")
	}
	if len(t.PrimaryKey) > 0 {
		keys := make([]string, len(t.PrimaryKey))
		for i, c := range t.PrimaryKey {
			keys[i] = c.Name
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(keys, ", "))
	}
	return b.String()
}

func joinValues(desc *schema.Descriptor, a *schema.Association, parent any) ([]any, bool) {
	args := make([]any, len(a.Pairs))
	for i, p := range a.Pairs {
		c, _ := desc.Column(p.Local)
		v := c.Value(parent)
		if v == nil {
			return nil, false
		}
		args[i] = v
	}
	return args, true
}
