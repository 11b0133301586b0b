package gen

import (
	"context"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/compiler/load"
	"github.com/syssam/reposql/schema"
)

const (
	schemaPkg  = "github.com/syssam/reposql/schema"
	coercePkg  = "github.com/syssam/reposql/coerce"
	decimalPkg = "github.com/shopspring/decimal"
)

// typeConsts names the coerce constant of every type code.
var typeConsts = map[coerce.SQLType]string{
	coerce.TypeOther:       "TypeOther",
	coerce.TypeBoolean:     "TypeBoolean",
	coerce.TypeBit:         "TypeBit",
	coerce.TypeTinyInt:     "TypeTinyInt",
	coerce.TypeSmallInt:    "TypeSmallInt",
	coerce.TypeInteger:     "TypeInteger",
	coerce.TypeBigInt:      "TypeBigInt",
	coerce.TypeReal:        "TypeReal",
	coerce.TypeFloat:       "TypeFloat",
	coerce.TypeDouble:      "TypeDouble",
	coerce.TypeNumeric:     "TypeNumeric",
	coerce.TypeDecimal:     "TypeDecimal",
	coerce.TypeChar:        "TypeChar",
	coerce.TypeVarChar:     "TypeVarChar",
	coerce.TypeLongVarChar: "TypeLongVarChar",
	coerce.TypeNChar:       "TypeNChar",
	coerce.TypeNVarChar:    "TypeNVarChar",
	coerce.TypeClob:        "TypeClob",
	coerce.TypeDate:        "TypeDate",
	coerce.TypeTime:        "TypeTime",
	coerce.TypeTimestamp:   "TypeTimestamp",
	coerce.TypeBinary:      "TypeBinary",
	coerce.TypeVarBinary:   "TypeVarBinary",
	coerce.TypeBlob:        "TypeBlob",
}

// multiline renders a call argument list one argument per line.
var multiline = jen.Options{Open: "(", Close: ")", Separator: ",", Multi: true}

// Generate builds the graph of specs and writes one file per entity into
// the configured target directory.
func Generate(ctx context.Context, specs []*load.Spec, opts ...Option) error {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return err
	}
	g, err := NewGraph(specs)
	if err != nil {
		return err
	}
	return write(ctx, cfg, g)
}

// Render returns the file of entity e: the struct, its enum types and the
// registration.
func Render(cfg *Config, e *Entity) *jen.File {
	f := jen.NewFile(cfg.Package)
	if cfg.Header != "" {
		f.HeaderComment(cfg.Header)
	}
	f.ImportName(schemaPkg, "schema")
	f.ImportName(coercePkg, "coerce")
	f.ImportName(decimalPkg, "decimal")

	genStruct(f, e)
	for _, fd := range e.Fields {
		if fd.Enum != nil {
			genEnum(f, e, fd)
		}
	}
	genRegister(f, e)
	return f
}

func genStruct(f *jen.File, e *Entity) {
	fields := make([]jen.Code, 0, len(e.Fields)+len(e.Assocs))
	for _, fd := range e.Fields {
		fields = append(fields, jen.Id(fd.GoName).Add(goType(fd)).Tag(map[string]string{"json": fd.Column.Name + ",omitempty"}))
	}
	for _, a := range e.Assocs {
		fields = append(fields, jen.Id(a.GoName).Add(assocType(a)).Tag(map[string]string{"json": a.Name + ",omitempty"}))
	}
	f.Commentf("%s is a row of the %s table.", e.Name, e.Table)
	f.Type().Id(e.Name).Struct(fields...)
}

func genEnum(f *jen.File, e *Entity, fd *Field) {
	en := fd.Enum
	names := inflect.CamelizeDownFirst(en.Name) + "Names"
	f.Commentf("%s is the %s column of %s, stored as the ordinal of its value.", en.Name, fd.Column.Name, e.Table)
	f.Type().Id(en.Name).Int()
	f.Const().DefsFunc(func(g *jen.Group) {
		for i, c := range en.Consts {
			if i == 0 {
				g.Id(c).Id(en.Name).Op("=").Iota()
				continue
			}
			g.Id(c)
		}
	})
	f.Var().Id(names).Op("=").Index(jen.Op("...")).String().ValuesFunc(func(g *jen.Group) {
		for _, v := range en.Values {
			g.Lit(v)
		}
	})
	f.Func().Params(jen.Id("v").Id(en.Name)).Id("String").Params().String().Block(
		jen.If(jen.Id("v").Op(">=").Lit(0).Op("&&").Int().Call(jen.Id("v")).Op("<").Len(jen.Id(names))).Block(
			jen.Return(jen.Id(names).Index(jen.Id("v"))),
		),
		jen.Return(jen.Qual("fmt", "Sprintf").Call(jen.Lit(en.Name+"(%d)"), jen.Int().Call(jen.Id("v")))),
	)
}

func genRegister(f *jen.File, e *Entity) {
	fields := make([]jen.Code, len(e.Fields))
	for i, fd := range e.Fields {
		fields[i] = fieldCall(e, fd)
	}
	chain := jen.Id("b").Dot("Table").Call(jen.Lit(e.Table)).Dot("Fields").Custom(multiline, fields...)
	if len(e.Assocs) > 0 {
		assocs := make([]jen.Code, len(e.Assocs))
		for i, a := range e.Assocs {
			assocs[i] = assocCall(e, a)
		}
		chain = chain.Dot("Associations").Custom(multiline, assocs...)
	}
	f.Func().Id("init").Params().Block(
		jen.Qual(schemaPkg, "Register").Call(
			jen.Func().Params(jen.Id("b").Op("*").Qual(schemaPkg, "Builder").Types(jen.Id(e.Name))).Block(chain),
		),
	)
}

// ref renders the accessor closure of a struct field.
func ref(e *Entity, name string, typ jen.Code) *jen.Statement {
	return jen.Func().Params(jen.Id("e").Op("*").Id(e.Name)).Op("*").Add(typ).Block(
		jen.Return(jen.Op("&").Id("e").Dot(name)),
	)
}

func fieldCall(e *Entity, fd *Field) *jen.Statement {
	c := fd.Column
	var call *jen.Statement
	if fd.Enum != nil {
		args := []jen.Code{jen.Lit(c.Name), ref(e, fd.GoName, goType(fd))}
		for _, v := range fd.Enum.Values {
			args = append(args, jen.Lit(v))
		}
		call = jen.Qual(schemaPkg, "Enum").Call(args...)
	} else {
		call = jen.Qual(schemaPkg, "Field").Call(jen.Lit(c.Name), ref(e, fd.GoName, goType(fd)))
	}
	if c.PrimaryKey {
		call = call.Dot("PrimaryKey").Call()
	}
	if c.Ignore {
		call = call.Dot("Ignore").Call()
	}
	if c.Default != nil {
		call = call.Dot("Default").Call(jen.Lit(*c.Default))
	}
	if c.Property != "" && c.Property != inflect.CamelizeDownFirst(c.Name) {
		call = call.Dot("Property").Call(jen.Lit(c.Property))
	}
	if fd.Override() {
		call = call.Dot("Type").Call(jen.Qual(coercePkg, typeConsts[fd.Type]))
	}
	return call
}

func assocCall(e *Entity, a *Assoc) *jen.Statement {
	args := []jen.Code{jen.Lit(a.Name), ref(e, a.GoName, assocType(a))}
	for _, p := range a.Join {
		args = append(args, jen.Qual(schemaPkg, "On").Call(jen.Lit(p.Local), jen.Lit(p.Foreign)))
	}
	if a.Kind == schema.OneToOne {
		return jen.Qual(schemaPkg, "HasOne").Call(args...)
	}
	return jen.Qual(schemaPkg, "HasMany").Call(args...)
}

// goType returns the struct field type of fd. Scalars and enums are
// pointers so that nil reads as NULL; byte slices and untyped columns are
// not.
func goType(fd *Field) *jen.Statement {
	switch fd.Kind {
	case KindEnum:
		return jen.Op("*").Id(fd.Enum.Name)
	case KindBytes:
		return jen.Index().Byte()
	case KindAny:
		return jen.Id("any")
	}
	return jen.Op("*").Add(baseType(fd.Kind))
}

func baseType(k Kind) *jen.Statement {
	switch k {
	case KindBool:
		return jen.Bool()
	case KindInt:
		return jen.Int64()
	case KindFloat:
		return jen.Float64()
	case KindDecimal:
		return jen.Qual(decimalPkg, "Decimal")
	case KindTime:
		return jen.Qual("time", "Time")
	default:
		return jen.String()
	}
}

func assocType(a *Assoc) *jen.Statement {
	if a.Kind == schema.OneToOne {
		return jen.Op("*").Id(a.Target.Name)
	}
	return jen.Index().Op("*").Id(a.Target.Name)
}
