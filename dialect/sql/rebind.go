package sql

import (
	"strconv"
	"strings"

	"github.com/syssam/reposql/dialect"
)

// Rebind rewrites "?" placeholders into the positional form of the dialect.
// Only PostgreSQL needs rewriting ("$1", "$2", ...). Question marks inside
// quoted literals or identifiers are left untouched.
func Rebind(d string, query string) string {
	if d != dialect.Postgres || !strings.Contains(query, "?") {
		return query
	}
	var (
		b     strings.Builder
		n     int
		quote byte
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
