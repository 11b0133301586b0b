package sqlgraph

import (
	"context"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dml"
	"github.com/syssam/reposql/schema"
)

// InsertEntity inserts entity and then its one-to-many children. A
// database-generated key is written back into the entity. Before a child
// is inserted, the parent's join values are copied into the child's join
// columns.
func InsertEntity(ctx context.Context, drv dialect.ExecQuerier, desc *schema.Descriptor, entity any, defaults dml.Defaults) error {
	d := dialect.Of(drv)
	stmt, err := dml.Insert(ctx, d, desc, entity, defaults)
	if err != nil {
		return err
	}
	switch {
	case stmt.AutoKey != nil && d == dialect.Postgres:
		rows, err := Query(ctx, drv, "insert", stmt.SQL, stmt.Args)
		if err != nil {
			return err
		}
		ids, err := ScanScalars(rows)
		if err != nil {
			return err
		}
		if len(ids) == 1 {
			if err := stmt.AutoKey.Assign(entity, ids[0]); err != nil {
				return err
			}
		}
	default:
		res, err := Exec(ctx, drv, "insert", stmt.SQL, stmt.Args)
		if err != nil {
			return err
		}
		if stmt.AutoKey != nil {
			// Drivers without LastInsertId leave the key unset.
			if id, err := res.LastInsertId(); err == nil {
				if err := stmt.AutoKey.Assign(entity, id); err != nil {
					return err
				}
			}
		}
	}
	for _, a := range desc.Associations {
		if a.Kind != schema.OneToMany {
			continue
		}
		t, err := a.Target()
		if err != nil {
			return err
		}
		for _, child := range a.Children(entity) {
			if err := linkChild(desc, t, a, entity, child); err != nil {
				return err
			}
			if err := InsertEntity(ctx, drv, t, child, defaults); err != nil {
				return err
			}
		}
	}
	return nil
}

func linkChild(desc, t *schema.Descriptor, a *schema.Association, parent, child any) error {
	for _, p := range a.Pairs {
		local, _ := desc.Column(p.Local)
		foreign, _ := t.Column(p.Foreign)
		if err := foreign.Assign(child, local.Value(parent)); err != nil {
			return err
		}
	}
	return nil
}

// UpdateEntity runs the partial update of entity and returns the number of
// affected rows.
func UpdateEntity(ctx context.Context, drv dialect.ExecQuerier, desc *schema.Descriptor, entity any) (int64, error) {
	stmt, err := dml.Update(desc, entity)
	if err != nil {
		return 0, err
	}
	return execAffected(ctx, drv, "update", stmt)
}

// DeleteByKey deletes the rows matching the primary-key values and returns
// the number of affected rows.
func DeleteByKey(ctx context.Context, drv dialect.ExecQuerier, desc *schema.Descriptor, keys ...any) (int64, error) {
	stmt, err := dml.DeleteByKey(desc, keys...)
	if err != nil {
		return 0, err
	}
	return execAffected(ctx, drv, "delete", stmt)
}

// ExistsByKey reports whether a row with the primary-key values exists.
func ExistsByKey(ctx context.Context, drv dialect.ExecQuerier, desc *schema.Descriptor, keys ...any) (bool, error) {
	stmt, err := dml.Exists(desc, keys...)
	if err != nil {
		return false, err
	}
	rows, err := Query(ctx, drv, "query", stmt.SQL, stmt.Args)
	if err != nil {
		return false, err
	}
	found, err := ScanScalars(rows)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

// FindByKey returns the entity with the primary-key values, or a
// NotFoundError. Associations are not loaded.
func FindByKey(ctx context.Context, drv dialect.ExecQuerier, desc *schema.Descriptor, keys ...any) (any, error) {
	stmt, err := dml.SelectByKey(desc, keys...)
	if err != nil {
		return nil, err
	}
	rows, err := Query(ctx, drv, "query", stmt.SQL, stmt.Args)
	if err != nil {
		return nil, err
	}
	found, err := ScanEntities(rows, desc)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, reposql.NewNotFoundErrorWithID(desc.Name, keyID(keys))
	case 1:
		return found[0], nil
	default:
		return nil, reposql.NewNotSingularErrorWithCount(desc.Name, len(found))
	}
}

func execAffected(ctx context.Context, drv dialect.ExecQuerier, op string, stmt *dml.Statement) (int64, error) {
	res, err := Exec(ctx, drv, op, stmt.SQL, stmt.Args)
	if err != nil {
		return 0, err
	}
	return Affected(op, stmt.SQL, res)
}

func keyID(keys []any) any {
	if len(keys) == 1 {
		return keys[0]
	}
	return keys
}
