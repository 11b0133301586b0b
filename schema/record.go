package schema

import (
	"fmt"

	"github.com/go-openapi/inflect"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
)

// RecordSpec describes an entity whose instances are *reposql.Record values
// instead of Go structs. It is the decoded form of a YAML entity file.
type RecordSpec struct {
	// Name is the entity name; it defaults to the table name.
	Name         string              `yaml:"name,omitempty"`
	Table        string              `yaml:"table"`
	Columns      []RecordColumn      `yaml:"columns"`
	Associations []RecordAssociation `yaml:"associations,omitempty"`
}

// RecordColumn describes one column of a record entity.
type RecordColumn struct {
	Name       string   `yaml:"name"`
	Property   string   `yaml:"property,omitempty"`
	Type       string   `yaml:"type,omitempty"`
	PrimaryKey bool     `yaml:"primary_key,omitempty"`
	Ignore     bool     `yaml:"ignore,omitempty"`
	Default    *string  `yaml:"default,omitempty"`
	Enum       []string `yaml:"enum,omitempty"`
}

// RecordAssociation describes an association between record entities.
// Target is the table name of the target record entity.
type RecordAssociation struct {
	Name   string     `yaml:"name"`
	Kind   string     `yaml:"kind"`
	Target string     `yaml:"target"`
	Join   []JoinPair `yaml:"join"`
}

// ParseKind parses "one-to-one"/"has_one" and "one-to-many"/"has_many".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "one-to-one", "one_to_one", "has_one", "HasOne":
		return OneToOne, nil
	case "one-to-many", "one_to_many", "has_many", "HasMany":
		return OneToMany, nil
	}
	return 0, fmt.Errorf("unknown association kind %q", s)
}

// NewRecordDescriptor builds a standalone record descriptor. Associations
// resolve their targets in the default registry; use Registry.Add to bind
// them to another registry.
func NewRecordDescriptor(spec RecordSpec) (*Descriptor, error) {
	return newRecordDescriptor(Default, spec)
}

func newRecordDescriptor(r *Registry, spec RecordSpec) (*Descriptor, error) {
	name := spec.Name
	if name == "" {
		name = spec.Table
	}
	cols := make([]*Column, len(spec.Columns))
	for i, rc := range spec.Columns {
		c, err := recordColumn(rc)
		if err != nil {
			return nil, reposql.NewConfigError(name, "column %q: %v", rc.Name, err)
		}
		cols[i] = c
	}
	assocs := make([]*Association, len(spec.Associations))
	for i, ra := range spec.Associations {
		kind, err := ParseKind(ra.Kind)
		if err != nil {
			return nil, reposql.NewConfigError(name, "association %q: %v", ra.Name, err)
		}
		assocs[i] = recordAssociation(ra, kind)
	}
	return newDescriptor(r, name, spec.Table, cols, assocs, func() any {
		return reposql.NewRecord(len(cols))
	})
}

func recordColumn(rc RecordColumn) (*Column, error) {
	typ := coerce.TypeOther
	if rc.Type != "" {
		typ = coerce.ParseType(rc.Type)
	}
	if len(rc.Enum) > 0 {
		if rc.Type != "" && !typ.IsInteger() {
			return nil, fmt.Errorf("enum column must have an integer type, got %s", rc.Type)
		}
		typ = coerce.TypeInteger
	}
	prop := rc.Property
	if prop == "" {
		prop = inflect.CamelizeDownFirst(rc.Name)
	}
	name := rc.Name
	return &Column{
		Name:       name,
		Property:   prop,
		Type:       typ,
		PrimaryKey: rc.PrimaryKey,
		Ignored:    rc.Ignore,
		Default:    rc.Default,
		Values:     rc.Enum,
		get:        func(e any) any { return e.(*reposql.Record).Value(name) },
		set: func(e, v any) error {
			if b, ok := v.([]byte); ok {
				if typ.IsCharacter() {
					v = string(b)
				} else {
					v = append([]byte(nil), b...)
				}
			}
			e.(*reposql.Record).Set(name, v)
			return nil
		},
	}, nil
}

func recordAssociation(ra RecordAssociation, kind Kind) *Association {
	name := ra.Name
	a := &Association{
		Name:      name,
		Kind:      kind,
		Pairs:     ra.Join,
		targetKey: RecordKey(ra.Target),
	}
	if kind == OneToOne {
		a.attach = func(p, c any) { p.(*reposql.Record).Set(name, c) }
		a.reset = func(p any) { p.(*reposql.Record).Set(name, nil) }
		a.children = func(p any) []any {
			if c, ok := p.(*reposql.Record).Value(name).(*reposql.Record); ok && c != nil {
				return []any{c}
			}
			return nil
		}
		return a
	}
	a.attach = func(p, c any) {
		rec := p.(*reposql.Record)
		s, _ := rec.Value(name).([]*reposql.Record)
		rec.Set(name, append(s, c.(*reposql.Record)))
	}
	a.reset = func(p any) { p.(*reposql.Record).Set(name, []*reposql.Record{}) }
	a.children = func(p any) []any {
		s, _ := p.(*reposql.Record).Value(name).([]*reposql.Record)
		out := make([]any, len(s))
		for i, c := range s {
			out[i] = c
		}
		return out
	}
	return a
}
