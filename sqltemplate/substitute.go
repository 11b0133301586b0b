package sqltemplate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syssam/reposql"
)

// Substitute replaces every :name placeholder with the literal text of its
// value and returns plain SQL without bind arguments.
//
// Deprecated: Substitute writes values into the SQL text. Even with quoting
// it is unsafe against adversarial input and defeats statement caching.
// It exists only for callers of the old literal-substitution query path;
// use Parse and Template.Bind instead.
func Substitute(sql string, params map[string]any) (string, error) {
	t, err := Parse(sql)
	if err != nil {
		return "", err
	}
	args, err := t.Bind(params)
	if err != nil {
		return "", err
	}
	var (
		b strings.Builder
		n int
	)
	for i := 0; i < len(t.SQL); i++ {
		c := t.SQL[i]
		if c == '\'' || c == '"' || c == '`' {
			// Copy quoted sections verbatim; Parse left their '?' alone.
			j := strings.IndexByte(t.SQL[i+1:], c)
			b.WriteString(t.SQL[i : i+j+2])
			i += j + 1
			continue
		}
		if c != '?' {
			b.WriteByte(c)
			continue
		}
		lit, err := literal(args[n])
		if err != nil {
			return "", reposql.NewBindingError(t.Params[n], "%v", err)
		}
		b.WriteString(lit)
		n++
	}
	return b.String(), nil
}

// literal renders v as a SQL literal.
func literal(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quote(v), nil
	case []byte:
		return quote(string(v)), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case time.Time:
		return quote(v.Format(time.RFC3339Nano)), nil
	case decimal.Decimal:
		return v.String(), nil
	case uuid.UUID:
		return quote(v.String()), nil
	case fmt.Stringer:
		return quote(v.String()), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		return literal(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.String:
		return quote(rv.String()), nil
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			p, err := literal(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return strings.Join(parts, ", "), nil
	}
	return "", fmt.Errorf("unsupported literal type %T", v)
}

// quote escapes single quotes by doubling and backslashes for MySQL.
func quote(s string) string {
	if strings.ContainsAny(s, `'\`) {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, "'", "''")
	}
	return "'" + s + "'"
}
