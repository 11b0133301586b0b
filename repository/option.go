package repository

import (
	"context"
	"log/slog"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dialect/sql/sqlgraph"
	"github.com/syssam/reposql/dml"
	"github.com/syssam/reposql/schema"
)

// Option configures a repository.
type Option func(*config) error

type config struct {
	log      *slog.Logger
	mode     sqlgraph.LoadMode
	defaults dml.Defaults
	registry *schema.Registry
	methods  map[string]Method
}

func newConfig(opts []Option) (*config, error) {
	c := &config{
		log:      slog.Default(),
		mode:     sqlgraph.Joined,
		registry: schema.Default,
		methods:  make(map[string]Method),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithLogger sets the logger used for statement and dispatch records.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		if l == nil {
			return reposql.NewConfigError("", "nil logger")
		}
		c.log = l
		return nil
	}
}

// WithLoadMode selects how associations are loaded by unlimited reads.
// Limited finders and write paths always use secondary queries.
func WithLoadMode(m sqlgraph.LoadMode) Option {
	return func(c *config) error {
		c.mode = m
		return nil
	}
}

// WithLiveDefaults makes inserts resolve column defaults from the live
// schema before falling back to declared default literals. A
// schema.Inspector from package dialect/sql/schema is the usual source.
func WithLiveDefaults(d dml.Defaults) Option {
	return func(c *config) error {
		c.defaults = d
		return nil
	}
}

// WithRegistry sets the registry New resolves the entity descriptor from.
func WithRegistry(r *schema.Registry) Option {
	return func(c *config) error {
		if r == nil {
			return reposql.NewConfigError("", "nil registry")
		}
		c.registry = r
		return nil
	}
}

// WithMethods declares custom methods in bulk. See Repository.Declare.
func WithMethods(methods map[string]Method) Option {
	return func(c *config) error {
		for name, m := range methods {
			if err := m.check(name); err != nil {
				return err
			}
			c.methods[name] = m
		}
		return nil
	}
}

// logged logs every statement at debug level before handing it to the
// wrapped executor.
type logged struct {
	dialect.ExecQuerier
	log *slog.Logger
}

func (l logged) Dialect() string { return dialect.Of(l.ExecQuerier) }

func (l logged) Exec(ctx context.Context, query string, args, v any) error {
	l.log.DebugContext(ctx, "exec", "sql", query, "args", argCount(args))
	return l.ExecQuerier.Exec(ctx, query, args, v)
}

func (l logged) Query(ctx context.Context, query string, args, v any) error {
	l.log.DebugContext(ctx, "query", "sql", query, "args", argCount(args))
	return l.ExecQuerier.Query(ctx, query, args, v)
}

func argCount(args any) int {
	if a, ok := args.([]any); ok {
		return len(a)
	}
	return 0
}
