// Package finder parses query-by-method-name finders such as
// "findByAgeGreaterThanAndCityOrderByNameDesc" into OR-of-AND condition
// groups plus an ordering, and renders them to SQL.
//
//	q, _ := finder.Parse("findByAgeGreaterThanAndCityOrderByNameDesc")
//	r := q.Render(dialect.SQLite, "users", []string{"*"})
//	// SELECT * FROM users WHERE age > ? AND city = ? ORDER BY name DESC
//
// AND binds tighter than OR. Operator keywords are matched against the end
// of each segment, longest keyword first.
package finder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/schema"
)

// Subject is the statement form a finder produces.
type Subject int

// Statement forms.
const (
	Select Subject = iota
	Count
	Exists
	Delete
)

// String returns the statement keyword of the subject.
func (s Subject) String() string {
	switch s {
	case Count:
		return "COUNT"
	case Exists:
		return "EXISTS"
	case Delete:
		return "DELETE"
	default:
		return "SELECT"
	}
}

// Condition is one atomic filter of a finder.
type Condition struct {
	// Property is the lower-camel property token ("firstName").
	Property string
	// Column is the physical column, by naming convention until resolved.
	Column string
	Op     Op
}

// Order is one ORDER BY entry.
type Order struct {
	Property string
	Column   string
	Desc     bool
}

// Query is a parsed finder method name.
type Query struct {
	// Method is the original method name.
	Method  string
	Subject Subject
	// Distinct selects DISTINCT rows.
	Distinct bool
	// Limit caps the number of rows; zero means unlimited.
	Limit int
	// Groups holds the OR-ed groups of AND-ed conditions, in method-name order.
	Groups [][]Condition
	// Orders holds the ORDER BY entries in method-name order.
	Orders []Order
}

var prefixRE = regexp.MustCompile(`^(find|read|get|query|count|exists|delete|remove)(All)?(Distinct)?(?:(First|Top)(\d*))?By`)

// IsFinder reports whether method starts with a known finder prefix.
func IsFinder(method string) bool {
	return prefixRE.MatchString(method)
}

// Parse parses a finder method name.
func Parse(method string) (*Query, error) {
	m := prefixRE.FindStringSubmatch(method)
	if m == nil {
		return nil, reposql.NewUnsupportedOperationError("", method)
	}
	q := &Query{Method: method, Distinct: m[3] != ""}
	switch m[1] {
	case "count":
		q.Subject = Count
	case "exists":
		q.Subject = Exists
	case "delete", "remove":
		q.Subject = Delete
	}
	if m[4] != "" {
		q.Limit = 1
		if m[5] != "" {
			n, err := strconv.Atoi(m[5])
			if err != nil || n <= 0 {
				return nil, reposql.NewConfigError("", "finder %s: invalid limit %q", method, m[5])
			}
			q.Limit = n
		}
	}
	if q.Subject != Select && (q.Limit > 0 || q.Distinct) {
		return nil, reposql.NewConfigError("", "finder %s: %s does not take First/Top/Distinct", method, m[1])
	}
	words := camelWords(method[len(m[0]):])
	where, order := words, []string(nil)
	for i := 0; i+1 < len(words); i++ {
		if words[i] == "Order" && words[i+1] == "By" {
			where, order = words[:i], words[i+2:]
			if len(order) == 0 {
				return nil, reposql.NewConfigError("", "finder %s: empty OrderBy clause", method)
			}
			break
		}
	}
	for _, orSeg := range split(where, "Or") {
		if len(orSeg) == 0 {
			return nil, reposql.NewConfigError("", "finder %s: empty condition around Or", method)
		}
		var group []Condition
		for _, andSeg := range split(orSeg, "And") {
			if len(andSeg) == 0 {
				return nil, reposql.NewConfigError("", "finder %s: empty condition around And", method)
			}
			tok, op := splitOp(strings.Join(andSeg, ""))
			prop := lowerFirst(tok)
			group = append(group, Condition{Property: prop, Column: schema.SnakeCase(prop), Op: op})
		}
		q.Groups = append(q.Groups, group)
	}
	orders, err := parseOrder(order)
	if err != nil {
		return nil, reposql.NewConfigError("", "finder %s: %v", method, err)
	}
	q.Orders = orders
	return q, nil
}

// parseOrder reads "NameDescAgeAsc"-style specs. A trailing property with
// no direction is ascending.
func parseOrder(words []string) ([]Order, error) {
	var (
		orders []Order
		cur    []string
	)
	flush := func(desc bool) error {
		if len(cur) == 0 {
			return fmt.Errorf("direction without property in OrderBy")
		}
		prop := lowerFirst(strings.Join(cur, ""))
		orders = append(orders, Order{Property: prop, Column: schema.SnakeCase(prop), Desc: desc})
		cur = cur[:0]
		return nil
	}
	for _, w := range words {
		switch {
		case w == "Asc" || w == "Desc":
			if err := flush(w == "Desc"); err != nil {
				return nil, err
			}
		case w == "And" && len(cur) == 0 && len(orders) > 0:
		default:
			cur = append(cur, w)
		}
	}
	if len(cur) > 0 {
		if err := flush(false); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Resolve maps every property to a column of d. Explicit property names
// on the descriptor win over the snake-case convention. Unknown properties
// are configuration errors.
func (q *Query) Resolve(d *schema.Descriptor) error {
	for _, g := range q.Groups {
		for i := range g {
			c, ok := d.ColumnForProperty(g[i].Property)
			if !ok {
				return reposql.NewConfigError(d.Name, "finder %s: unknown property %q", q.Method, g[i].Property)
			}
			g[i].Column = c.Name
		}
	}
	for i := range q.Orders {
		c, ok := d.ColumnForProperty(q.Orders[i].Property)
		if !ok {
			return reposql.NewConfigError(d.Name, "finder %s: unknown order property %q", q.Method, q.Orders[i].Property)
		}
		q.Orders[i].Column = c.Name
	}
	return nil
}

// NumArgs returns the number of arguments the finder expects.
func (q *Query) NumArgs() int {
	n := 0
	for _, g := range q.Groups {
		for _, c := range g {
			n += c.Op.Arity()
		}
	}
	return n
}

// Bind checks the argument count against the conditions and returns the
// bind values in placeholder order. Operators without a value consume no
// argument.
func (q *Query) Bind(args []any) ([]any, error) {
	if n := q.NumArgs(); len(args) != n {
		return nil, reposql.NewBindingError(q.Method, "expects %d arguments, got %d", n, len(args))
	}
	return append([]any(nil), args...), nil
}

// String returns a readable form of the parsed finder.
func (q *Query) String() string {
	var b strings.Builder
	b.WriteString(q.Subject.String())
	if q.Distinct {
		b.WriteString(" DISTINCT")
	}
	for i, g := range q.Groups {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" OR ")
		}
		for j, c := range g {
			if j > 0 {
				b.WriteString(" AND ")
			}
			fmt.Fprintf(&b, "%s %s", c.Column, c.Op)
		}
	}
	for i, o := range q.Orders {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(o.Column)
		if o.Desc {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String()
}

// camelWords splits "AgeGreaterThan" into ["Age", "Greater", "Than"].
// A run of digits stays with the preceding word.
func camelWords(s string) []string {
	var (
		words []string
		start int
	)
	for i, r := range s {
		if i > start && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		words = append(words, s[start:])
	}
	return words
}

// split cuts words at every standalone sep word.
func split(words []string, sep string) [][]string {
	if len(words) == 0 {
		return nil
	}
	var (
		out [][]string
		cur []string
	)
	for _, w := range words {
		if w == sep {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, w)
	}
	return append(out, cur)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
