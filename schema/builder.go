package schema

import (
	"reflect"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
)

// Builder collects the mapping of the entity type T. It is handed to the
// define function passed to Register.
type Builder[T any] struct {
	table  string
	fields []*FieldBuilder[T]
	assocs []*AssocBuilder[T]
}

// Table sets the physical table name. It defaults to the snake-case plural
// of the type name.
func (b *Builder[T]) Table(name string) *Builder[T] {
	b.table = name
	return b
}

// Fields appends mapped columns in declaration order.
func (b *Builder[T]) Fields(fs ...*FieldBuilder[T]) *Builder[T] {
	b.fields = append(b.fields, fs...)
	return b
}

// Associations appends relations to other registered entity types.
func (b *Builder[T]) Associations(as ...*AssocBuilder[T]) *Builder[T] {
	b.assocs = append(b.assocs, as...)
	return b
}

// FieldBuilder configures one column of T.
type FieldBuilder[T any] struct {
	col    *Column
	goType reflect.Type
	typed  bool
}

// Field maps the column name to the struct field returned by ref. The
// column type is derived from V unless set with Type.
//
//	schema.Field("email", func(u *User) *string { return &u.Email })
func Field[T, V any](name string, ref func(*T) *V) *FieldBuilder[T] {
	return &FieldBuilder[T]{
		goType: reflect.TypeFor[V](),
		col: &Column{
			Name:     name,
			Property: inflect.CamelizeDownFirst(name),
			get:      func(e any) any { return *ref(e.(*T)) },
			set:      func(e, v any) error { return coerce.Assign(ref(e.(*T)), v) },
		},
	}
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Enum maps an integer-backed Go enum to a column storing the ordinal
// index into values. A nil reference is SQL NULL, so partial updates skip
// the column and inserts fall back to its default.
//
//	schema.Enum("status", func(u *User) **Status { return &u.Status }, "ACTIVE", "BLOCKED")
func Enum[T any, V integer](name string, ref func(*T) **V, values ...string) *FieldBuilder[T] {
	return &FieldBuilder[T]{
		goType: reflect.TypeFor[int64](),
		typed:  true,
		col: &Column{
			Name:     name,
			Property: inflect.CamelizeDownFirst(name),
			Type:     coerce.TypeInteger,
			Values:   values,
			get: func(e any) any {
				if p := *ref(e.(*T)); p != nil {
					return int64(*p)
				}
				return nil
			},
			set: func(e, v any) error {
				if v == nil {
					*ref(e.(*T)) = nil
					return nil
				}
				ord, err := coerce.ToInt64(v)
				if err != nil {
					return err
				}
				ev := V(ord)
				*ref(e.(*T)) = &ev
				return nil
			},
		},
	}
}

// PrimaryKey marks the column as part of the primary key.
func (f *FieldBuilder[T]) PrimaryKey() *FieldBuilder[T] {
	f.col.PrimaryKey = true
	return f
}

// Ignore excludes the column from INSERT and UPDATE statements. It is still
// read back by queries.
func (f *FieldBuilder[T]) Ignore() *FieldBuilder[T] {
	f.col.Ignored = true
	return f
}

// Default sets the default-value literal used when the value is null on
// insert.
func (f *FieldBuilder[T]) Default(literal string) *FieldBuilder[T] {
	f.col.Default = &literal
	return f
}

// Property overrides the property name finder methods use for the column.
func (f *FieldBuilder[T]) Property(name string) *FieldBuilder[T] {
	f.col.Property = name
	return f
}

// Type overrides the SQL type code derived from the field type.
func (f *FieldBuilder[T]) Type(t coerce.SQLType) *FieldBuilder[T] {
	f.col.Type = t
	f.typed = true
	return f
}

func (f *FieldBuilder[T]) column() *Column {
	if !f.typed {
		f.col.Type = coerce.TypeOf(f.goType)
	}
	return f.col
}

// AssocBuilder configures one association of T.
type AssocBuilder[T any] struct {
	assoc *Association
}

// HasOne declares a one-to-one association to U stored in the field ref
// points to.
//
//	schema.HasOne("profile", func(u *User) **Profile { return &u.Profile },
//		schema.On("id", "user_id"))
func HasOne[T, U any](name string, ref func(*T) **U, pairs ...JoinPair) *AssocBuilder[T] {
	return &AssocBuilder[T]{assoc: &Association{
		Name:      name,
		Kind:      OneToOne,
		Pairs:     pairs,
		targetKey: KeyOf[U](),
		attach:    func(p, c any) { *ref(p.(*T)) = c.(*U) },
		reset:     func(p any) { *ref(p.(*T)) = nil },
		children: func(p any) []any {
			if c := *ref(p.(*T)); c != nil {
				return []any{c}
			}
			return nil
		},
	}}
}

// HasMany declares a one-to-many association to U stored in the slice ref
// points to.
func HasMany[T, U any](name string, ref func(*T) *[]*U, pairs ...JoinPair) *AssocBuilder[T] {
	return &AssocBuilder[T]{assoc: &Association{
		Name:      name,
		Kind:      OneToMany,
		Pairs:     pairs,
		targetKey: KeyOf[U](),
		attach: func(p, c any) {
			s := ref(p.(*T))
			*s = append(*s, c.(*U))
		},
		reset: func(p any) { *ref(p.(*T)) = []*U{} },
		children: func(p any) []any {
			s := *ref(p.(*T))
			out := make([]any, len(s))
			for i, c := range s {
				out[i] = c
			}
			return out
		},
	}}
}

// build validates the collected mapping and produces the descriptor.
func (b *Builder[T]) build(r *Registry) (*Descriptor, error) {
	t := reflect.TypeFor[T]()
	name := t.Name()
	table := b.table
	if table == "" {
		table = inflect.Pluralize(SnakeCase(name))
	}
	cols := make([]*Column, len(b.fields))
	for i, f := range b.fields {
		cols[i] = f.column()
	}
	assocs := make([]*Association, len(b.assocs))
	for i, a := range b.assocs {
		assocs[i] = a.assoc
	}
	return newDescriptor(r, name, table, cols, assocs, func() any { return new(T) })
}

// newDescriptor checks the mapping shared by typed and record descriptors.
func newDescriptor(r *Registry, name, table string, cols []*Column, assocs []*Association, newFn func() any) (*Descriptor, error) {
	if table == "" {
		return nil, reposql.NewConfigError(name, "missing table name")
	}
	d := &Descriptor{
		Name:       name,
		Table:      table,
		Columns:    cols,
		newFn:      newFn,
		byName:     make(map[string]*Column, len(cols)),
		byFold:     make(map[string]*Column, len(cols)),
		byProperty: make(map[string]*Column, len(cols)),
	}
	for _, c := range cols {
		if c.Name == "" {
			return nil, reposql.NewConfigError(name, "column with empty name")
		}
		if _, dup := d.byName[c.Name]; dup {
			return nil, reposql.NewConfigError(name, "duplicate column %q", c.Name)
		}
		d.byName[c.Name] = c
		d.byFold[strings.ToLower(c.Name)] = c
		if c.Property != "" {
			d.byProperty[c.Property] = c
		}
		if c.PrimaryKey {
			d.PrimaryKey = append(d.PrimaryKey, c)
		}
	}
	for _, a := range assocs {
		if len(a.Pairs) == 0 {
			return nil, reposql.NewConfigError(name, "association %q has no join columns", a.Name)
		}
		for _, p := range a.Pairs {
			if _, ok := d.Column(p.Local); !ok {
				return nil, reposql.NewConfigError(name, "association %q: join column %q not found on %s", a.Name, p.Local, table)
			}
		}
		a.owner = name
		a.registry = r
	}
	d.Associations = assocs
	return d, nil
}
