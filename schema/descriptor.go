package schema

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-openapi/inflect"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
)

// Descriptor is the immutable mapping of an entity type to a table.
// It is built once per type by a Registry and shared by all callers.
type Descriptor struct {
	// Name is the entity label used in errors (Go type name or table name).
	Name string
	// Table is the physical table name.
	Table string
	// Columns holds all columns in declaration order.
	Columns []*Column
	// PrimaryKey holds the primary-key columns in declaration order. The order
	// defines the positional order of composite key values.
	PrimaryKey []*Column
	// Associations holds the declared one-to-one and one-to-many relations.
	Associations []*Association

	newFn      func() any
	byName     map[string]*Column
	byFold     map[string]*Column
	byProperty map[string]*Column
}

// New returns a new, empty entity instance (a pointer to the entity type).
func (d *Descriptor) New() any { return d.newFn() }

// Column returns the column with the given physical name. The lookup falls
// back to a case-insensitive match.
func (d *Descriptor) Column(name string) (*Column, bool) {
	if c, ok := d.byName[name]; ok {
		return c, true
	}
	c, ok := d.byFold[strings.ToLower(name)]
	return c, ok
}

// ColumnForProperty returns the column bound to a property name as used by
// finder method names ("firstName"). Explicit property overrides win over the
// snake-case naming convention.
func (d *Descriptor) ColumnForProperty(prop string) (*Column, bool) {
	if c, ok := d.byProperty[prop]; ok {
		return c, true
	}
	return d.Column(SnakeCase(prop))
}

// ColumnNames returns the names of all columns in declaration order.
func (d *Descriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Key returns the primary-key values of an entity in declaration order.
func (d *Descriptor) Key(entity any) []any {
	key := make([]any, len(d.PrimaryKey))
	for i, c := range d.PrimaryKey {
		key[i] = c.Value(entity)
	}
	return key
}

// HasNullKey reports whether any primary-key value of the entity is null.
func (d *Descriptor) HasNullKey(entity any) bool {
	for _, c := range d.PrimaryKey {
		if c.Value(entity) == nil {
			return true
		}
	}
	return false
}

// Association returns the association with the given name.
func (d *Descriptor) Association(name string) (*Association, bool) {
	for _, a := range d.Associations {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Column describes one mapped column.
type Column struct {
	// Name is the physical column name.
	Name string
	// Property is the name finder methods use for this column.
	Property string
	// Type is the SQL type code used to decode default literals.
	Type coerce.SQLType
	// PrimaryKey marks primary-key membership.
	PrimaryKey bool
	// Ignored columns are read but never written.
	Ignored bool
	// Default is the static default-value literal, if any.
	Default *string
	// Values is the fixed value list of an enum column. Enum columns are
	// stored as the ordinal index into this list.
	Values []string

	get func(entity any) any
	set func(entity, v any) error
}

// IsEnum reports whether the column stores an enum ordinal.
func (c *Column) IsEnum() bool { return len(c.Values) > 0 }

// HasDefault reports whether the column declares a static default literal.
func (c *Column) HasDefault() bool { return c.Default != nil }

// Value returns the value of the column in entity, or nil when it is SQL
// NULL: a nil pointer, slice, map or interface, or a driver.Valuer that
// reports nil. Non-nil pointers are dereferenced.
func (c *Column) Value(entity any) any {
	return normalize(c.get(entity))
}

// Assign stores a value read from the database into the entity. Enum
// ordinals are checked against the value list.
func (c *Column) Assign(entity, v any) error {
	if c.IsEnum() && v != nil {
		ord, err := coerce.ToInt64(v)
		if err != nil {
			return reposql.NewDecodeError(c.Name, v, err)
		}
		if ord < 0 || ord >= int64(len(c.Values)) {
			return reposql.NewDecodeError(c.Name, v, fmt.Errorf("enum ordinal out of range [0, %d)", len(c.Values)))
		}
		v = ord
	}
	if err := c.set(entity, v); err != nil {
		return reposql.NewDecodeError(c.Name, v, err)
	}
	return nil
}

// EnumName returns the value-list entry for the ordinal stored in entity.
func (c *Column) EnumName(entity any) (string, bool) {
	if !c.IsEnum() {
		return "", false
	}
	ord, err := coerce.ToInt64(c.Value(entity))
	if err != nil || ord < 0 || ord >= int64(len(c.Values)) {
		return "", false
	}
	return c.Values[ord], true
}

func normalize(v any) any {
	if v == nil {
		return nil
	}
	if vr, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		if dv, err := vr.Value(); err == nil && dv == nil {
			return nil
		}
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Interface, reflect.Func:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

// Kind is the cardinality of an association.
type Kind uint8

// Association kinds.
const (
	OneToOne Kind = iota + 1
	OneToMany
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case OneToOne:
		return "one-to-one"
	case OneToMany:
		return "one-to-many"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// JoinPair links a column of the owning entity to a column of the target.
type JoinPair struct {
	Local   string `yaml:"local"`
	Foreign string `yaml:"foreign"`
}

// On returns a join pair.
func On(local, foreign string) JoinPair {
	return JoinPair{Local: local, Foreign: foreign}
}

// Association describes a relation from the owning entity to a target
// entity. The target descriptor is resolved lazily so that entities may
// reference each other.
type Association struct {
	Name  string
	Kind  Kind
	Pairs []JoinPair

	owner     string
	targetKey string
	registry  *Registry
	attach    func(parent, child any)
	reset     func(parent any)
	children  func(parent any) []any

	target atomic.Pointer[Descriptor]
}

// Target resolves and validates the target descriptor. Unknown foreign
// columns, and one-to-many targets without a primary key, are
// configuration errors. Only a successful resolution is cached, so a
// target registered after the first call is picked up by the next one.
func (a *Association) Target() (*Descriptor, error) {
	if t := a.target.Load(); t != nil {
		return t, nil
	}
	t, err := a.registry.Lookup(a.targetKey)
	if err != nil {
		return nil, err
	}
	for _, p := range a.Pairs {
		if _, ok := t.Column(p.Foreign); !ok {
			return nil, reposql.NewConfigError(a.owner, "association %q: join column %q not found on %s", a.Name, p.Foreign, t.Table)
		}
	}
	if a.Kind == OneToMany && len(t.PrimaryKey) == 0 {
		return nil, reposql.NewConfigError(a.owner, "association %q: target %s has no primary key", a.Name, t.Table)
	}
	a.target.Store(t)
	return t, nil
}

// Attach links child to parent: it sets the one-to-one field or appends to
// the one-to-many collection.
func (a *Association) Attach(parent, child any) { a.attach(parent, child) }

// Reset clears the association field of parent. One-to-many collections are
// set to an empty, non-nil collection.
func (a *Association) Reset(parent any) { a.reset(parent) }

// Children returns the entities currently linked to parent.
func (a *Association) Children(parent any) []any { return a.children(parent) }

// SnakeCase converts a property name ("firstName", "FirstName") to the
// column naming convention ("first_name").
func SnakeCase(s string) string {
	return inflect.Underscore(s)
}
