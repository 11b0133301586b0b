// Package repository routes repository calls to the SQL engine. A call is
// either one of the built-in CRUD operations, a declared query or write,
// or a finder whose method name encodes the filter:
//
//	users, err := repository.New[User](drv)
//	if err != nil {
//		return err
//	}
//	users.Declare("activeEmails", repository.Method{
//		Query:   "SELECT email FROM users WHERE active = :active",
//		Returns: repository.ScalarList,
//	})
//	res, err := users.Invoke(ctx, repository.Invocation{
//		Method: "findByAgeGreaterThanOrderByNameDesc",
//		Args:   []any{30},
//	})
//	list, err := repository.List[User](res)
//
// Every call runs synchronously on the caller's goroutine. A Repository is
// safe for concurrent use.
package repository

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dialect/sql/sqlgraph"
	"github.com/syssam/reposql/dml"
	"github.com/syssam/reposql/schema"
	"github.com/syssam/reposql/sqltemplate"
)

// Method is a declared custom query or write.
type Method struct {
	// Query is the SQL text with :name placeholders.
	Query string
	// Returns is the result shape of a read. Writes always return the
	// affected-row count.
	Returns Shape
	// Modifying marks an UPDATE, DELETE or INSERT statement.
	Modifying bool
	// Literal writes parameter values into the SQL text instead of binding
	// them.
	//
	// Deprecated: literal substitution is unsafe against adversarial input.
	// It is kept for callers of the old query path only.
	Literal bool
}

func (m Method) check(name string) error {
	if m.Query == "" {
		return reposql.NewConfigError("", "method %s: empty query", name)
	}
	if m.Modifying && m.Returns != Auto && m.Returns != Affected {
		return reposql.NewConfigError("", "method %s: a modifying method cannot return %s", name, m.Returns)
	}
	return nil
}

// Repository executes the operations of entity type T.
type Repository[T any] struct {
	drv       dialect.ExecQuerier
	desc      *schema.Descriptor
	log       *slog.Logger
	mode      sqlgraph.LoadMode
	defaults  dml.Defaults
	templates sqltemplate.Cache
	finders   sync.Map // method name → *finder.Query

	mu      sync.RWMutex
	methods map[string]Method

	graphOnce sync.Once
	graph     *sqlgraph.Graph
	graphErr  error
}

// New returns the repository of T, whose descriptor is looked up in the
// configured registry.
func New[T any](drv dialect.ExecQuerier, opts ...Option) (*Repository[T], error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	desc, err := schema.OfIn[T](c.registry)
	if err != nil {
		return nil, err
	}
	return newRepository[T](drv, desc, c)
}

// NewFor returns a repository over an explicit descriptor, such as a
// record descriptor loaded from YAML with T being reposql.Record.
func NewFor[T any](drv dialect.ExecQuerier, desc *schema.Descriptor, opts ...Option) (*Repository[T], error) {
	if desc == nil {
		return nil, reposql.NewConfigError(reflect.TypeFor[T]().Name(), "nil descriptor")
	}
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newRepository[T](drv, desc, c)
}

func newRepository[T any](drv dialect.ExecQuerier, desc *schema.Descriptor, c *config) (*Repository[T], error) {
	if drv == nil {
		return nil, reposql.NewConfigError(desc.Name, "nil driver")
	}
	if e, ok := desc.New().(*T); !ok {
		return nil, reposql.NewConfigError(desc.Name, "descriptor builds %T, not %T", desc.New(), e)
	}
	return &Repository[T]{
		drv:      logged{ExecQuerier: drv, log: c.log},
		desc:     desc,
		log:      c.log,
		mode:     c.mode,
		defaults: c.defaults,
		methods:  c.methods,
	}, nil
}

// Descriptor returns the entity descriptor of the repository.
func (r *Repository[T]) Descriptor() *schema.Descriptor { return r.desc }

// Declare adds or replaces the custom method name.
func (r *Repository[T]) Declare(name string, m Method) error {
	if err := m.check(name); err != nil {
		return err
	}
	r.mu.Lock()
	r.methods[name] = m
	r.mu.Unlock()
	return nil
}

func (r *Repository[T]) method(name string) (Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[name]
	return m, ok
}

// Save inserts e when any of its primary-key values is null or no row with
// its key exists, and updates it otherwise. An entity carrying only its key
// is left unchanged. Associations are reloaded afterwards.
func (r *Repository[T]) Save(ctx context.Context, e *T) error {
	if r.desc.HasNullKey(e) {
		return r.Insert(ctx, e)
	}
	found, err := sqlgraph.ExistsByKey(ctx, r.drv, r.desc, r.desc.Key(e)...)
	if err != nil {
		return err
	}
	if !found {
		return r.Insert(ctx, e)
	}
	if _, err := r.Update(ctx, e); err != nil && !errors.Is(err, reposql.ErrNothingToUpdate) {
		return err
	}
	return r.reload(ctx, e)
}

// Insert inserts e together with its one-to-many children and reloads its
// associations. A generated key is written back into e.
func (r *Repository[T]) Insert(ctx context.Context, e *T) error {
	if err := sqlgraph.InsertEntity(ctx, r.drv, r.desc, e, r.defaults); err != nil {
		return err
	}
	return r.reload(ctx, e)
}

// Update writes the non-null columns of e and returns the number of
// affected rows.
func (r *Repository[T]) Update(ctx context.Context, e *T) (int64, error) {
	return sqlgraph.UpdateEntity(ctx, r.drv, r.desc, e)
}

// Delete deletes the row with the key of e.
func (r *Repository[T]) Delete(ctx context.Context, e *T) (int64, error) {
	return sqlgraph.DeleteByKey(ctx, r.drv, r.desc, r.desc.Key(e)...)
}

// DeleteByID deletes the rows with the primary-key values, given in key
// declaration order. A null value matches with IS NULL.
func (r *Repository[T]) DeleteByID(ctx context.Context, keys ...any) (int64, error) {
	return sqlgraph.DeleteByKey(ctx, r.drv, r.desc, keys...)
}

// FindByID returns the entity with the primary-key values and its
// associations.
func (r *Repository[T]) FindByID(ctx context.Context, keys ...any) (*T, error) {
	found, err := r.findByID(ctx, keys)
	if err != nil {
		return nil, err
	}
	if err := single(r.desc.Name, found, keys); err != nil {
		return nil, err
	}
	return found[0].(*T), nil
}

// FindAll returns every entity of the table with its associations.
func (r *Repository[T]) FindAll(ctx context.Context) ([]*T, error) {
	found, err := r.findAll(ctx)
	if err != nil {
		return nil, err
	}
	return typed[T](found)
}

func (r *Repository[T]) findByID(ctx context.Context, keys []any) ([]any, error) {
	if r.joined() {
		where, args, err := dml.KeyWhere(r.desc, "t0", keys...)
		if err != nil {
			return nil, err
		}
		return r.selectJoined(ctx, where, "", args)
	}
	stmt, err := dml.SelectByKey(r.desc, keys...)
	if err != nil {
		return nil, err
	}
	return r.selectFlat(ctx, stmt.SQL, stmt.Args)
}

func (r *Repository[T]) findAll(ctx context.Context) ([]any, error) {
	if r.joined() {
		return r.selectJoined(ctx, "", "", nil)
	}
	stmt, err := dml.SelectAll(r.desc)
	if err != nil {
		return nil, err
	}
	return r.selectFlat(ctx, stmt.SQL, stmt.Args)
}

// joined reports whether unlimited reads use one joined query.
func (r *Repository[T]) joined() bool {
	return r.mode == sqlgraph.Joined && len(r.desc.Associations) > 0 && len(r.desc.PrimaryKey) > 0
}

func (r *Repository[T]) joinedGraph() (*sqlgraph.Graph, error) {
	r.graphOnce.Do(func() {
		r.graph, r.graphErr = sqlgraph.NewGraph(r.desc)
	})
	return r.graph, r.graphErr
}

// selectJoined runs one joined query for the roots matching where. The
// requested order is followed by the graph's key order.
func (r *Repository[T]) selectJoined(ctx context.Context, where, orderBy string, args []any) ([]any, error) {
	g, err := r.joinedGraph()
	if err != nil {
		return nil, err
	}
	if orderBy != "" {
		orderBy += ", "
	}
	rows, err := sqlgraph.Query(ctx, r.drv, "query", g.Select(where, orderBy+g.KeyOrder()), args)
	if err != nil {
		return nil, err
	}
	return g.Scan(rows)
}

// selectFlat runs a root-only query and loads associations with secondary
// queries once the root rows are closed.
func (r *Repository[T]) selectFlat(ctx context.Context, query string, args []any) ([]any, error) {
	rows, err := sqlgraph.Query(ctx, r.drv, "query", query, args)
	if err != nil {
		return nil, err
	}
	found, err := sqlgraph.ScanEntities(rows, r.desc)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 && len(r.desc.Associations) > 0 {
		if err := sqlgraph.LoadSecondary(ctx, r.drv, r.desc, found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (r *Repository[T]) reload(ctx context.Context, e *T) error {
	if len(r.desc.Associations) == 0 || r.desc.HasNullKey(e) {
		return nil
	}
	return sqlgraph.LoadSecondary(ctx, r.drv, r.desc, []any{e})
}

func single(label string, found []any, id any) error {
	switch len(found) {
	case 0:
		if keys, ok := id.([]any); ok && len(keys) == 1 {
			id = keys[0]
		}
		if id == nil {
			return reposql.NewNotFoundError(label)
		}
		return reposql.NewNotFoundErrorWithID(label, id)
	case 1:
		return nil
	default:
		return reposql.NewNotSingularErrorWithCount(label, len(found))
	}
}
