package coerce

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/reposql/dialect"
)

func TestDecodeDefault(t *testing.T) {
	tests := []struct {
		literal string
		typ     SQLType
		want    any
	}{
		{"'ACTIVE'", TypeVarChar, "ACTIVE"},
		{"'ACTIVE'::character varying", TypeVarChar, "ACTIVE"},
		{"'it''s'", TypeLongVarChar, "it's"},
		{"1", TypeBoolean, false},
		{"TRUE", TypeBoolean, true},
		{"'true'", TypeBit, true},
		{"(42)", TypeInteger, int64(42)},
		{"'7'", TypeBigInt, int64(7)},
		{"1.5", TypeDouble, 1.5},
		{"NULL", TypeInteger, nil},
		{"2024-02-29", TypeDate, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"'2024-02-29 10:30:00'", TypeTimestamp, time.Date(2024, 2, 29, 10, 30, 0, 0, time.UTC)},
		{"gen_random_uuid()", TypeOther, "gen_random_uuid()"},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			got, err := DecodeDefault(tt.literal, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	d, err := DecodeDefault("'10.50'", TypeNumeric)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.5").Equal(d.(decimal.Decimal)))

	now, err := DecodeDefault("CURRENT_TIMESTAMP", TypeTimestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now.(time.Time), time.Minute)

	_, err = DecodeDefault("'abc'", TypeInteger)
	assert.Error(t, err)
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "a", Unquote("'a'"))
	assert.Equal(t, `say "hi"`, Unquote(`"say ""hi"""`))
	assert.Equal(t, "'", Unquote("'"))
	assert.Equal(t, "plain", Unquote("plain"))
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]SQLType{
		"VARCHAR(255)":     TypeVarChar,
		"text":             TypeLongVarChar,
		"INTEGER":          TypeInteger,
		"int unsigned":     TypeInteger,
		"bigint":           TypeBigInt,
		"NUMERIC(10, 2)":   TypeNumeric,
		"double precision": TypeDouble,
		"uuid":             TypeChar,
		"timestamp":        TypeTimestamp,
		"bytea":            TypeVarBinary,
		"jsonb":            TypeOther,
	} {
		assert.Equal(t, want, ParseType(in), in)
	}
	assert.Equal(t, "VARCHAR", TypeVarChar.String())
	assert.True(t, TypeTinyInt.IsInteger())
	assert.True(t, TypeClob.IsCharacter())
	assert.False(t, TypeDecimal.IsFloating())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TypeBigInt, TypeOf(reflect.TypeFor[*int64]()))
	assert.Equal(t, TypeVarChar, TypeOf(reflect.TypeFor[string]()))
	assert.Equal(t, TypeDecimal, TypeOf(reflect.TypeFor[decimal.Decimal]()))
	assert.Equal(t, TypeTimestamp, TypeOf(reflect.TypeFor[*time.Time]()))
	assert.Equal(t, TypeVarBinary, TypeOf(reflect.TypeFor[[]byte]()))
	assert.Equal(t, TypeChar, TypeOf(reflect.TypeFor[uuid.UUID]()))
	assert.Equal(t, TypeBoolean, TypeOf(reflect.TypeFor[sql.NullBool]()))
}

type level int

func (l level) Ordinal() int { return int(l) }

func TestBind(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	var nilPtr *int
	n := 3
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int widens", 3, int64(3)},
		{"uint32 widens", uint32(3), int64(3)},
		{"huge uint binds as text", uint64(1 << 63), "9223372036854775808"},
		{"float32 widens", float32(0.5), 0.5},
		{"decimal as text", decimal.RequireFromString("1.25"), "1.25"},
		{"uuid as text", id, id.String()},
		{"ordinal", level(2), int64(2)},
		{"nil pointer", nilPtr, nil},
		{"pointer dereferenced", &n, int64(3)},
		{"null string valuer", sql.NullString{}, nil},
		{"valid string valuer", sql.NullString{String: "x", Valid: true}, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bind(tt.in, dialect.SQLite))
		})
	}

	assert.Equal(t, []string{"a"}, Bind([]string{"a"}, dialect.MySQL))
	assert.IsType(t, pq.Array([]string{}), Bind([]string{"a"}, dialect.Postgres))
	assert.Equal(t, []any{int64(1), nil}, BindAll([]any{1, nil}, dialect.SQLite))
}

func TestAssign(t *testing.T) {
	var s string
	require.NoError(t, Assign(&s, []byte("text")))
	assert.Equal(t, "text", s)

	var p *int64
	require.NoError(t, Assign(&p, "12"))
	require.NotNil(t, p)
	assert.Equal(t, int64(12), *p)
	require.NoError(t, Assign(&p, nil))
	assert.Nil(t, p)

	var b bool
	require.NoError(t, Assign(&b, int64(1)))
	assert.True(t, b)

	var i8 int8
	assert.Error(t, Assign(&i8, int64(300)))

	var f *float64
	require.NoError(t, Assign(&f, int64(2)))
	assert.Equal(t, 2.0, *f)

	var ts time.Time
	require.NoError(t, Assign(&ts, "2024-01-02 03:04:05"))
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), ts)

	var d decimal.Decimal
	require.NoError(t, Assign(&d, "3.14"))
	assert.Equal(t, "3.14", d.String())

	var u *uuid.UUID
	require.NoError(t, Assign(&u, []byte("6ba7b810-9dad-11d1-80b4-00c04fd430c8")))
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", u.String())

	var raw []byte
	src := []byte("abc")
	require.NoError(t, Assign(&raw, src))
	src[0] = 'x'
	assert.Equal(t, []byte("abc"), raw, "bytes are copied")

	var anyv any
	require.NoError(t, Assign(&anyv, int64(5)))
	assert.Equal(t, int64(5), anyv)

	assert.Error(t, Assign(s, "x"), "destination must be a pointer")
	var n int
	assert.Error(t, Assign(&n, 1.5))
}
