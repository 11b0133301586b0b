// Package sqltemplate turns SQL text with :name placeholders into
// positional "?" SQL plus the ordered list of parameter names.
//
// A template is parsed once and bound many times:
//
//	t, err := sqltemplate.Parse("SELECT * FROM t WHERE a = :x AND b = :x")
//	// t.SQL    == "SELECT * FROM t WHERE a = ? AND b = ?"
//	// t.Params == []string{"x", "x"}
//	args, err := t.Bind(map[string]any{"x": 5}) // []any{5, 5}
//
// Values are never written into the SQL text; see Substitute for the
// deprecated exception.
package sqltemplate

import (
	"strings"
	"sync"

	"github.com/syssam/reposql"
)

// Template is a parsed named-parameter statement.
type Template struct {
	// SQL is the statement with every :name replaced by "?".
	SQL string
	// Params holds the parameter name of each placeholder in textual order.
	// A name appears once per occurrence.
	Params []string
}

// Parse scans sql for :identifier tokens. An identifier starts with a
// letter or underscore and continues with letters, digits or underscores.
// Tokens inside quoted literals and PostgreSQL "::" casts are not
// placeholders. A bare "?" outside quotes is rejected: it would take a
// bind position that no parameter name owns.
func Parse(sql string) (*Template, error) {
	var (
		b      strings.Builder
		params []string
		quote  byte
	)
	b.Grow(len(sql))
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			return nil, reposql.NewBindingError("?", "positional placeholder at offset %d in %q; use :name", i, sql)
		case c == ':' && i+1 < len(sql) && sql[i+1] == ':':
			b.WriteString("::")
			i++
			continue
		case c == ':' && i+1 < len(sql) && isIdentStart(sql[i+1]):
			j := i + 1
			for j < len(sql) && isIdentPart(sql[j]) {
				j++
			}
			params = append(params, sql[i+1:j])
			b.WriteByte('?')
			i = j - 1
			continue
		}
		b.WriteByte(c)
	}
	if quote != 0 {
		return nil, reposql.NewBindingError(string(quote), "unterminated quoted literal in %q", sql)
	}
	return &Template{SQL: b.String(), Params: params}, nil
}

// MustParse is like Parse but panics on error. It simplifies the
// initialization of package-level templates.
func MustParse(sql string) *Template {
	t, err := Parse(sql)
	if err != nil {
		panic(err)
	}
	return t
}

// Bind resolves every placeholder against params, in placeholder order.
// A name used at several positions yields its value at each of them.
func (t *Template) Bind(params map[string]any) ([]any, error) {
	args := make([]any, len(t.Params))
	for i, name := range t.Params {
		v, ok := params[name]
		if !ok {
			return nil, reposql.NewMissingParameterError(name)
		}
		args[i] = v
	}
	return args, nil
}

// Of parses sql and binds params in one step.
func Of(sql string, params map[string]any) (string, []any, error) {
	t, err := Parse(sql)
	if err != nil {
		return "", nil, err
	}
	args, err := t.Bind(params)
	if err != nil {
		return "", nil, err
	}
	return t.SQL, args, nil
}

// Cache memoizes parsed templates by their SQL text. It is safe for
// concurrent use.
type Cache struct {
	m sync.Map // string → *Template
}

// Get returns the parsed template for sql, parsing it on first use.
func (c *Cache) Get(sql string) (*Template, error) {
	if t, ok := c.m.Load(sql); ok {
		return t.(*Template), nil
	}
	t, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	actual, _ := c.m.LoadOrStore(sql, t)
	return actual.(*Template), nil
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}
