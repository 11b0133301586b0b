package repository

import (
	"context"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dialect/sql/sqlgraph"
	"github.com/syssam/reposql/finder"
	"github.com/syssam/reposql/sqltemplate"
)

// Invocation records one repository call.
type Invocation struct {
	// Method is the called method name, e.g. "findById" or
	// "findByEmailAndActiveTrue".
	Method string
	// Returns is the declared result shape. Auto picks the natural shape.
	Returns Shape
	// Query is custom SQL declared at the call site. It takes precedence
	// over a method declared with the same name.
	Query string
	// Modifying marks Query as a write.
	Modifying bool
	// Params binds the :name placeholders of a custom query.
	Params map[string]any
	// Args holds positional arguments: primary-key values for findById and
	// deleteById, finder arguments otherwise.
	Args []any
	// Entity is the argument of save, insert, update and delete.
	Entity any
}

// Built-in CRUD method names.
const (
	MethodSave       = "save"
	MethodInsert     = "insert"
	MethodUpdate     = "update"
	MethodFindByID   = "findById"
	MethodFindAll    = "findAll"
	MethodDelete     = "delete"
	MethodDeleteByID = "deleteById"
)

// Invoke classifies inv and executes it. Built-in CRUD names come first,
// then declared reads and writes, then finders. Any other call fails with
// an UnsupportedOperationError.
func (r *Repository[T]) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	switch inv.Method {
	case MethodSave, MethodInsert, MethodUpdate, MethodFindByID, MethodFindAll, MethodDelete, MethodDeleteByID:
		r.log.DebugContext(ctx, "invoke", "method", inv.Method, "kind", "crud")
		return r.crud(ctx, inv)
	}
	if m, ok := r.declared(inv); ok {
		if err := m.check(inv.Method); err != nil {
			return nil, err
		}
		if m.Modifying {
			r.log.DebugContext(ctx, "invoke", "method", inv.Method, "kind", "write")
			return r.write(ctx, inv.Method, m, inv.Params)
		}
		r.log.DebugContext(ctx, "invoke", "method", inv.Method, "kind", "read")
		return r.read(ctx, inv.Method, m, inv.Params)
	}
	if finder.IsFinder(inv.Method) {
		r.log.DebugContext(ctx, "invoke", "method", inv.Method, "kind", "finder")
		return r.find(ctx, inv)
	}
	return nil, reposql.NewUnsupportedOperationError(r.desc.Name, inv.Method)
}

func (r *Repository[T]) declared(inv Invocation) (Method, bool) {
	if inv.Query != "" {
		return Method{Query: inv.Query, Returns: inv.Returns, Modifying: inv.Modifying}, true
	}
	m, ok := r.method(inv.Method)
	if ok && inv.Returns != Auto {
		m.Returns = inv.Returns
	}
	return m, ok
}

func (r *Repository[T]) crud(ctx context.Context, inv Invocation) (*Result, error) {
	switch inv.Method {
	case MethodFindByID:
		found, err := r.findByID(ctx, inv.Args)
		if err != nil {
			return nil, err
		}
		if err := single(r.desc.Name, found, inv.Args); err != nil {
			return nil, err
		}
		return &Result{Shape: Entity, Entities: found}, nil
	case MethodFindAll:
		found, err := r.findAll(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Shape: EntityList, Entities: found}, nil
	case MethodDeleteByID:
		n, err := r.DeleteByID(ctx, inv.Args...)
		if err != nil {
			return nil, err
		}
		return &Result{Shape: Affected, Affected: n}, nil
	}
	e, ok := inv.Entity.(*T)
	if !ok || e == nil {
		return nil, reposql.NewBindingError(inv.Method, "expects a non-nil %T argument, got %T", e, inv.Entity)
	}
	switch inv.Method {
	case MethodSave:
		if err := r.Save(ctx, e); err != nil {
			return nil, err
		}
		return &Result{Shape: Entity, Entities: []any{e}}, nil
	case MethodInsert:
		if err := r.Insert(ctx, e); err != nil {
			return nil, err
		}
		return &Result{Shape: Entity, Entities: []any{e}}, nil
	case MethodUpdate:
		n, err := r.Update(ctx, e)
		if err != nil {
			return nil, err
		}
		return &Result{Shape: Affected, Affected: n}, nil
	default:
		n, err := r.Delete(ctx, e)
		if err != nil {
			return nil, err
		}
		return &Result{Shape: Affected, Affected: n}, nil
	}
}

// statement binds params into the query of m.
func (r *Repository[T]) statement(ctx context.Context, name string, m Method, params map[string]any) (string, []any, error) {
	if m.Literal {
		r.log.WarnContext(ctx, "literal substitution is deprecated and unsafe", "method", name)
		query, err := sqltemplate.Substitute(m.Query, params)
		return query, nil, err
	}
	t, err := r.templates.Get(m.Query)
	if err != nil {
		return "", nil, err
	}
	args, err := t.Bind(params)
	if err != nil {
		return "", nil, err
	}
	return t.SQL, args, nil
}

func (r *Repository[T]) write(ctx context.Context, name string, m Method, params map[string]any) (*Result, error) {
	query, args, err := r.statement(ctx, name, m, params)
	if err != nil {
		return nil, err
	}
	res, err := sqlgraph.Exec(ctx, r.drv, "exec", query, args)
	if err != nil {
		return nil, err
	}
	n, err := sqlgraph.Affected("exec", query, res)
	if err != nil {
		return nil, err
	}
	return &Result{Shape: Affected, Affected: n}, nil
}

func (r *Repository[T]) read(ctx context.Context, name string, m Method, params map[string]any) (*Result, error) {
	query, args, err := r.statement(ctx, name, m, params)
	if err != nil {
		return nil, err
	}
	shape := m.Returns
	if shape == Auto {
		shape = EntityList
	}
	return r.shape(ctx, name, shape, query, args)
}

// shape executes a read and materializes it as shape.
func (r *Repository[T]) shape(ctx context.Context, name string, shape Shape, query string, args []any) (*Result, error) {
	switch shape {
	case Entity, EntityList:
		found, err := r.selectFlat(ctx, query, args)
		if err != nil {
			return nil, err
		}
		if shape == Entity {
			if err := single(r.desc.Name, found, nil); err != nil {
				return nil, err
			}
		}
		return &Result{Shape: shape, Entities: found}, nil
	case Scalar, ScalarList:
		rows, err := sqlgraph.Query(ctx, r.drv, "query", query, args)
		if err != nil {
			return nil, err
		}
		vals, err := sqlgraph.ScanScalars(rows)
		if err != nil {
			return nil, err
		}
		if shape == Scalar {
			if err := single(name, vals, nil); err != nil {
				return nil, err
			}
		}
		return &Result{Shape: shape, Values: vals}, nil
	case Map, MapList:
		rows, err := sqlgraph.Query(ctx, r.drv, "query", query, args)
		if err != nil {
			return nil, err
		}
		recs, err := sqlgraph.ScanRecords(rows)
		if err != nil {
			return nil, err
		}
		if shape == Map {
			found := make([]any, len(recs))
			for i, rec := range recs {
				found[i] = rec
			}
			if err := single(name, found, nil); err != nil {
				return nil, err
			}
		}
		return &Result{Shape: shape, Records: recs}, nil
	default:
		return nil, reposql.NewConfigError(r.desc.Name, "method %s: a read cannot return %s", name, shape)
	}
}

// finderQuery returns the parsed and resolved finder of method.
func (r *Repository[T]) finderQuery(method string) (*finder.Query, error) {
	if q, ok := r.finders.Load(method); ok {
		return q.(*finder.Query), nil
	}
	q, err := finder.Parse(method)
	if err != nil {
		return nil, err
	}
	if err := q.Resolve(r.desc); err != nil {
		return nil, err
	}
	actual, _ := r.finders.LoadOrStore(method, q)
	return actual.(*finder.Query), nil
}

func (r *Repository[T]) find(ctx context.Context, inv Invocation) (*Result, error) {
	q, err := r.finderQuery(inv.Method)
	if err != nil {
		return nil, err
	}
	args, err := q.Bind(inv.Args)
	if err != nil {
		return nil, err
	}
	d := dialect.Of(r.drv)
	switch q.Subject {
	case finder.Count:
		rendered := q.Render(d, r.desc.Table, nil)
		return r.shape(ctx, inv.Method, orDefault(inv.Returns, Scalar), rendered.SQL, args)
	case finder.Exists:
		rendered := q.Render(d, r.desc.Table, nil)
		rows, err := sqlgraph.Query(ctx, r.drv, "query", rendered.SQL, args)
		if err != nil {
			return nil, err
		}
		vals, err := sqlgraph.ScanScalars(rows)
		if err != nil {
			return nil, err
		}
		return &Result{Shape: Scalar, Values: []any{len(vals) > 0}}, nil
	case finder.Delete:
		rendered := q.Render(d, r.desc.Table, nil)
		res, err := sqlgraph.Exec(ctx, r.drv, "delete", rendered.SQL, args)
		if err != nil {
			return nil, err
		}
		n, err := sqlgraph.Affected("delete", rendered.SQL, res)
		if err != nil {
			return nil, err
		}
		return &Result{Shape: Affected, Affected: n}, nil
	}
	shape := orDefault(inv.Returns, EntityList)
	if (shape == Entity || shape == EntityList) && r.joined() && q.Limit == 0 && !q.Distinct {
		found, err := r.selectJoined(ctx, q.Where(d, "t0"), q.OrderBy("t0"), args)
		if err != nil {
			return nil, err
		}
		if shape == Entity {
			if err := single(r.desc.Name, found, nil); err != nil {
				return nil, err
			}
		}
		return &Result{Shape: shape, Entities: found}, nil
	}
	rendered := q.Render(d, r.desc.Table, r.desc.ColumnNames())
	return r.shape(ctx, inv.Method, shape, rendered.SQL, args)
}

func orDefault(s, def Shape) Shape {
	if s == Auto {
		return def
	}
	return s
}
