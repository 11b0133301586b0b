package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DecodeDefault converts a column default literal, as declared in an entity
// description or reported by the live schema, into a typed value according
// to the column's type code:
//
//   - boolean: true only when the literal case-insensitively equals "true"
//   - integer family: int64
//   - floating family: float64; NUMERIC/DECIMAL: decimal.Decimal
//   - character family: the text with its surrounding quotes removed
//   - date and timestamp: time.Time (CURRENT_DATE/CURRENT_TIMESTAMP resolve to now)
//
// Literals of any other type code are returned unchanged as text. The
// keyword NULL decodes to nil.
func DecodeDefault(literal string, t SQLType) (any, error) {
	lit := stripCast(strings.TrimSpace(literal))
	if strings.EqualFold(lit, "null") {
		return nil, nil
	}
	switch {
	case t == TypeBoolean || t == TypeBit:
		return strings.EqualFold(Unquote(lit), "true"), nil
	case t.IsInteger():
		i, err := strconv.ParseInt(Unquote(unparen(lit)), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("coerce: default %q is not an integer: %w", literal, err)
		}
		return i, nil
	case t.IsFloating():
		f, err := strconv.ParseFloat(Unquote(unparen(lit)), 64)
		if err != nil {
			return nil, fmt.Errorf("coerce: default %q is not a number: %w", literal, err)
		}
		return f, nil
	case t.IsDecimal():
		d, err := decimal.NewFromString(Unquote(unparen(lit)))
		if err != nil {
			return nil, fmt.Errorf("coerce: default %q is not a decimal: %w", literal, err)
		}
		return d, nil
	case t.IsCharacter():
		return Unquote(lit), nil
	case t == TypeDate:
		if isNowKeyword(lit) {
			y, m, d := time.Now().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
		}
		d, err := time.Parse("2006-01-02", Unquote(lit))
		if err != nil {
			return nil, fmt.Errorf("coerce: default %q is not a date: %w", literal, err)
		}
		return d, nil
	case t == TypeTimestamp:
		if isNowKeyword(lit) {
			return time.Now(), nil
		}
		ts, err := ParseTime(Unquote(lit))
		if err != nil {
			return nil, fmt.Errorf("coerce: default %q is not a timestamp: %w", literal, err)
		}
		return ts, nil
	default:
		return literal, nil
	}
}

// Unquote removes one pair of surrounding single or double quotes and
// collapses doubled quote characters inside the literal.
func Unquote(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '\'' || q == '"') && s[len(s)-1] == q {
			inner := s[1 : len(s)-1]
			return strings.ReplaceAll(inner, string([]byte{q, q}), string(q))
		}
	}
	return s
}

// stripCast removes a trailing PostgreSQL cast, as in 'ACTIVE'::character varying.
func stripCast(s string) string {
	var quote byte
	for i := 0; i < len(s)-1; i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ':' && s[i+1] == ':':
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}

// unparen removes wrapping parentheses that SQLite keeps around expressions.
func unparen(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func isNowKeyword(s string) bool {
	switch strings.ToLower(unparen(s)) {
	case "current_timestamp", "current_date", "now()", "current_timestamp()", "localtimestamp",
		"datetime('now')", "date('now')":
		return true
	}
	return false
}
