package gen

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/compiler/load"
	"github.com/syssam/reposql/schema"
)

// Kind is the Go representation chosen for a column.
type Kind uint8

// Column kinds.
const (
	KindAny Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindTime
	KindBytes
	KindEnum
)

var kindNames = [...]string{
	KindAny:     "any",
	KindBool:    "bool",
	KindInt:     "int64",
	KindFloat:   "float64",
	KindDecimal: "decimal.Decimal",
	KindString:  "string",
	KindTime:    "time.Time",
	KindBytes:   "[]byte",
	KindEnum:    "enum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// natural is the type code schema.Field derives from the Go type of k.
func (k Kind) natural() coerce.SQLType {
	switch k {
	case KindBool:
		return coerce.TypeBoolean
	case KindInt:
		return coerce.TypeBigInt
	case KindFloat:
		return coerce.TypeDouble
	case KindDecimal:
		return coerce.TypeDecimal
	case KindString:
		return coerce.TypeVarChar
	case KindTime:
		return coerce.TypeTimestamp
	case KindBytes:
		return coerce.TypeVarBinary
	case KindEnum:
		return coerce.TypeInteger
	default:
		return coerce.TypeOther
	}
}

func kindOf(t coerce.SQLType) Kind {
	switch {
	case t == coerce.TypeBoolean || t == coerce.TypeBit:
		return KindBool
	case t.IsInteger():
		return KindInt
	case t.IsFloating():
		return KindFloat
	case t.IsDecimal():
		return KindDecimal
	case t.IsCharacter():
		return KindString
	case t == coerce.TypeDate || t == coerce.TypeTime || t == coerce.TypeTimestamp:
		return KindTime
	case t == coerce.TypeBinary || t == coerce.TypeVarBinary || t == coerce.TypeBlob:
		return KindBytes
	default:
		return KindAny
	}
}

// Graph holds the entities of one generation run.
type Graph struct {
	Entities []*Entity
}

// Entity is one generated struct.
type Entity struct {
	// Name is the Go type name.
	Name  string
	Table string
	// File is the output file name.
	File   string
	Pos    string
	Fields []*Field
	Assocs []*Assoc
}

// Field is one mapped column of an entity.
type Field struct {
	Column schema.RecordColumn
	// GoName is the struct field name.
	GoName string
	// Type is the declared type code, TypeOther when undeclared.
	Type coerce.SQLType
	Kind Kind
	// Enum is set for enum columns.
	Enum *Enum
}

// Override reports whether the registration must set the type code
// explicitly because it differs from the one derived from the Go type.
func (f *Field) Override() bool {
	return f.Type != coerce.TypeOther && f.Type != f.Kind.natural()
}

// Enum is the named integer type of an enum column.
type Enum struct {
	Name   string
	Consts []string
	Values []string
}

// Assoc is one association of an entity.
type Assoc struct {
	Name   string
	GoName string
	Kind   schema.Kind
	Target *Entity
	Join   []schema.JoinPair
}

// NewGraph validates specs and resolves Go names, Go types and association
// targets. Validation registers the specs in a scratch registry, so the
// rules match those applied at run time.
func NewGraph(specs []*load.Spec) (*Graph, error) {
	if _, err := load.Register(schema.NewRegistry(), specs); err != nil {
		return nil, NewSchemaError("", "", "invalid entity description", err)
	}
	g := &Graph{}
	byTable := make(map[string]*Entity, len(specs))
	byName := make(map[string]*Entity, len(specs))
	for _, s := range specs {
		e, err := newEntity(s)
		if err != nil {
			return nil, err
		}
		if prev, dup := byName[e.Name]; dup {
			return nil, NewSchemaError(e.Name, "", "type name also used by "+prev.Pos, nil)
		}
		byName[e.Name] = e
		byTable[e.Table] = e
		g.Entities = append(g.Entities, e)
	}
	for i, s := range specs {
		e := g.Entities[i]
		used := make(map[string]bool, len(e.Fields))
		for _, f := range e.Fields {
			used[f.GoName] = true
		}
		for _, ra := range s.Associations {
			kind, err := schema.ParseKind(ra.Kind)
			if err != nil {
				return nil, NewSchemaError(e.Name, "", "association "+ra.Name, err)
			}
			target, ok := byTable[ra.Target]
			if !ok {
				return nil, NewSchemaError(e.Name, "", "association "+ra.Name+": unknown target table "+ra.Target, nil)
			}
			a := &Assoc{Name: ra.Name, GoName: pascal(ra.Name), Kind: kind, Target: target, Join: ra.Join}
			if used[a.GoName] {
				return nil, NewSchemaError(e.Name, "", "association "+ra.Name+" collides with field "+a.GoName, nil)
			}
			used[a.GoName] = true
			e.Assocs = append(e.Assocs, a)
		}
	}
	sort.SliceStable(g.Entities, func(i, j int) bool { return g.Entities[i].Name < g.Entities[j].Name })
	return g, nil
}

func newEntity(s *load.Spec) (*Entity, error) {
	name := s.Name
	if name == "" {
		name = inflect.Singularize(s.Table)
	}
	e := &Entity{Name: pascal(name), Table: s.Table, Pos: s.Pos}
	if !token.IsIdentifier(e.Name) {
		return nil, NewSchemaError(name, "", "not a valid Go type name: "+e.Name, nil)
	}
	e.File = inflect.Underscore(e.Name) + ".go"
	seen := make(map[string]string, len(s.Columns))
	for _, rc := range s.Columns {
		f := &Field{Column: rc, GoName: pascal(rc.Name)}
		if !token.IsIdentifier(f.GoName) {
			return nil, NewSchemaError(e.Name, rc.Name, "not a valid Go field name: "+f.GoName, nil)
		}
		if prev, dup := seen[f.GoName]; dup {
			return nil, NewSchemaError(e.Name, rc.Name, "field name "+f.GoName+" also used by column "+prev, nil)
		}
		seen[f.GoName] = rc.Name
		if rc.Type != "" {
			f.Type = coerce.ParseType(rc.Type)
		}
		f.Kind = kindOf(f.Type)
		if len(rc.Enum) > 0 {
			en, err := newEnum(e.Name+f.GoName, rc.Enum)
			if err != nil {
				return nil, NewSchemaError(e.Name, rc.Name, "enum", err)
			}
			f.Kind = KindEnum
			f.Enum = en
		}
		e.Fields = append(e.Fields, f)
	}
	return e, nil
}

func newEnum(name string, values []string) (*Enum, error) {
	title := cases.Title(language.English)
	en := &Enum{Name: name, Values: values}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		words := strings.FieldsFunc(v, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		var b strings.Builder
		b.WriteString(name)
		for _, w := range words {
			b.WriteString(title.String(w))
		}
		c := b.String()
		if c == name || !token.IsIdentifier(c) {
			return nil, fmt.Errorf("value %q has no constant name", v)
		}
		if seen[c] {
			return nil, fmt.Errorf("values map to the same constant %s", c)
		}
		seen[c] = true
		en.Consts = append(en.Consts, c)
	}
	return en, nil
}

var initialisms = map[string]bool{
	"api": true, "http": true, "id": true, "ip": true, "json": true,
	"sql": true, "uid": true, "url": true, "uuid": true,
}

// pascal converts a column or entity name ("customer_id", "orderLine") to
// an exported Go name ("CustomerID", "OrderLine").
func pascal(s string) string {
	var b strings.Builder
	for _, w := range strings.Split(inflect.Underscore(s), "_") {
		if w == "" {
			continue
		}
		if initialisms[w] {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		b.WriteString(inflect.Capitalize(w))
	}
	return b.String()
}
