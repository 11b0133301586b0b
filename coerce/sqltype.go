// Package coerce converts values between Go and SQL: it picks the bound
// representation of statement arguments, assigns scanned values to entity
// fields and decodes schema default literals.
package coerce

import (
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SQLType is a column type code, modeled after the portable type codes most
// drivers report for column metadata.
type SQLType int

// Column type codes.
const (
	TypeOther SQLType = iota
	TypeBoolean
	TypeBit
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeReal
	TypeFloat
	TypeDouble
	TypeNumeric
	TypeDecimal
	TypeChar
	TypeVarChar
	TypeLongVarChar
	TypeNChar
	TypeNVarChar
	TypeClob
	TypeDate
	TypeTime
	TypeTimestamp
	TypeBinary
	TypeVarBinary
	TypeBlob
)

var typeNames = [...]string{
	TypeOther:       "OTHER",
	TypeBoolean:     "BOOLEAN",
	TypeBit:         "BIT",
	TypeTinyInt:     "TINYINT",
	TypeSmallInt:    "SMALLINT",
	TypeInteger:     "INTEGER",
	TypeBigInt:      "BIGINT",
	TypeReal:        "REAL",
	TypeFloat:       "FLOAT",
	TypeDouble:      "DOUBLE",
	TypeNumeric:     "NUMERIC",
	TypeDecimal:     "DECIMAL",
	TypeChar:        "CHAR",
	TypeVarChar:     "VARCHAR",
	TypeLongVarChar: "LONGVARCHAR",
	TypeNChar:       "NCHAR",
	TypeNVarChar:    "NVARCHAR",
	TypeClob:        "CLOB",
	TypeDate:        "DATE",
	TypeTime:        "TIME",
	TypeTimestamp:   "TIMESTAMP",
	TypeBinary:      "BINARY",
	TypeVarBinary:   "VARBINARY",
	TypeBlob:        "BLOB",
}

// String returns the SQL name of the type code.
func (t SQLType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return typeNames[TypeOther]
	}
	return typeNames[t]
}

// IsInteger reports whether t belongs to the integer family.
func (t SQLType) IsInteger() bool {
	return t >= TypeTinyInt && t <= TypeBigInt
}

// IsFloating reports whether t belongs to the floating-point family.
func (t SQLType) IsFloating() bool {
	return t >= TypeReal && t <= TypeDouble
}

// IsDecimal reports whether t is an exact numeric type.
func (t SQLType) IsDecimal() bool {
	return t == TypeNumeric || t == TypeDecimal
}

// IsCharacter reports whether t belongs to the character family.
func (t SQLType) IsCharacter() bool {
	return t >= TypeChar && t <= TypeClob
}

// ParseType maps a declared column type, as reported by the live schema
// ("VARCHAR(255)", "int4", "timestamp with time zone"), to a type code.
func ParseType(declared string) SQLType {
	s := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.TrimSuffix(s, " unsigned")
	switch s {
	case "bool", "boolean":
		return TypeBoolean
	case "bit":
		return TypeBit
	case "tinyint":
		return TypeTinyInt
	case "smallint", "int2", "smallserial":
		return TypeSmallInt
	case "int", "integer", "int4", "mediumint", "serial":
		return TypeInteger
	case "bigint", "int8", "bigserial":
		return TypeBigInt
	case "real", "float4":
		return TypeReal
	case "float":
		return TypeFloat
	case "double", "double precision", "float8":
		return TypeDouble
	case "numeric":
		return TypeNumeric
	case "decimal", "money":
		return TypeDecimal
	case "char", "character", "bpchar", "uuid":
		return TypeChar
	case "varchar", "character varying", "varchar2":
		return TypeVarChar
	case "nchar", "national character":
		return TypeNChar
	case "nvarchar", "national character varying":
		return TypeNVarChar
	case "text", "tinytext", "mediumtext", "longtext", "longvarchar":
		return TypeLongVarChar
	case "clob":
		return TypeClob
	case "date":
		return TypeDate
	case "time", "time without time zone", "time with time zone", "timetz":
		return TypeTime
	case "timestamp", "datetime", "timestamptz", "timestamp without time zone", "timestamp with time zone":
		return TypeTimestamp
	case "binary":
		return TypeBinary
	case "varbinary", "bytea":
		return TypeVarBinary
	case "blob", "tinyblob", "mediumblob", "longblob":
		return TypeBlob
	default:
		return TypeOther
	}
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	bytesType   = reflect.TypeOf([]byte(nil))
)

// TypeOf returns the type code a Go field type maps to. Pointer types map
// to the code of their element type.
func TypeOf(t reflect.Type) SQLType {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType, reflect.TypeOf(sql.NullTime{}):
		return TypeTimestamp
	case decimalType:
		return TypeDecimal
	case uuidType:
		return TypeChar
	case bytesType:
		return TypeVarBinary
	case reflect.TypeOf(sql.NullString{}):
		return TypeVarChar
	case reflect.TypeOf(sql.NullInt64{}):
		return TypeBigInt
	case reflect.TypeOf(sql.NullInt32{}):
		return TypeInteger
	case reflect.TypeOf(sql.NullBool{}):
		return TypeBoolean
	case reflect.TypeOf(sql.NullFloat64{}):
		return TypeDouble
	}
	switch t.Kind() {
	case reflect.Bool:
		return TypeBoolean
	case reflect.Int8:
		return TypeTinyInt
	case reflect.Int16:
		return TypeSmallInt
	case reflect.Int32, reflect.Int:
		return TypeInteger
	case reflect.Int64, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeBigInt
	case reflect.Float32:
		return TypeReal
	case reflect.Float64:
		return TypeDouble
	case reflect.String:
		return TypeVarChar
	default:
		return TypeOther
	}
}
