package coerce

import (
	"database/sql/driver"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/syssam/reposql/dialect"
)

// Ordinal is implemented by enum values that are persisted as the index
// into their type's fixed value list.
type Ordinal interface {
	Ordinal() int
}

// Bind returns the representation of v handed to the driver for a
// statement slot. The runtime type selects the conversion: numeric values
// widen to int64/float64, decimals and UUIDs bind as text, enums bind as
// their ordinal, pointers are dereferenced, and slices bind as PostgreSQL
// arrays under the postgres dialect. Values of unknown types are returned
// unchanged and left to the driver's default conversion.
func Bind(v any, d string) any {
	switch v := v.(type) {
	case nil:
		return nil
	case bool, string, float64, int64, time.Time:
		return v
	case []byte:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		return bindUint(uint64(v))
	case uint64:
		return bindUint(v)
	case float32:
		return float64(v)
	case decimal.Decimal:
		return v.String()
	case decimal.NullDecimal:
		if !v.Valid {
			return nil
		}
		return v.Decimal.String()
	case uuid.UUID:
		return v.String()
	case uuid.NullUUID:
		if !v.Valid {
			return nil
		}
		return v.UUID.String()
	case Ordinal:
		return int64(v.Ordinal())
	case driver.Valuer:
		return bindValuer(v)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Bind(rv.Elem().Interface(), d)
	case reflect.Slice, reflect.Array:
		if d == dialect.Postgres {
			return pq.Array(v)
		}
		return v
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return bindUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}

// BindAll applies Bind to every argument.
func BindAll(args []any, d string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = Bind(a, d)
	}
	return out
}

func bindUint(u uint64) any {
	if u > math.MaxInt64 {
		return strconv.FormatUint(u, 10)
	}
	return int64(u)
}

// bindValuer resolves driver.Valuer implementations up front so that nil
// pointers to Valuers bind as NULL instead of panicking inside the driver.
func bindValuer(v driver.Valuer) any {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	dv, err := v.Value()
	if err != nil {
		return v
	}
	return dv
}
