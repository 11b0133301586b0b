package finder

import (
	"strconv"
	"strings"

	"github.com/syssam/reposql/dialect"
)

// Slot describes one "?" placeholder of rendered SQL.
type Slot struct {
	Column string
	Op     Op
	// Arg is the index of the finder argument bound to the slot.
	Arg int
}

// Rendered is a finder rendered to SQL.
type Rendered struct {
	SQL   string
	Slots []Slot
}

// Render renders the finder against table. columns is the select list of
// Select finders and is ignored by the other statement forms.
//
// LIKE-family operators render as "LIKE ?"; the caller places wildcards.
// IN renders a single placeholder that must be bound to a list value. On
// PostgreSQL it renders as "= ANY(?)" so that an array parameter can be
// bound.
func (q *Query) Render(d, table string, columns []string) Rendered {
	var b strings.Builder
	switch q.Subject {
	case Count:
		b.WriteString("SELECT COUNT(*) FROM ")
	case Exists:
		b.WriteString("SELECT 1 FROM ")
	case Delete:
		b.WriteString("DELETE FROM ")
	default:
		b.WriteString("SELECT ")
		if q.Distinct {
			b.WriteString("DISTINCT ")
		}
		if len(columns) == 0 {
			b.WriteString("*")
		} else {
			b.WriteString(strings.Join(columns, ", "))
		}
		b.WriteString(" FROM ")
	}
	b.WriteString(table)
	where, slots := q.where(d, "")
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if q.Subject == Select {
		if ob := q.OrderBy(""); ob != "" {
			b.WriteString(" ORDER BY ")
			b.WriteString(ob)
		}
	}
	switch {
	case q.Subject == Exists:
		b.WriteString(" LIMIT 1")
	case q.Subject == Select && q.Limit > 0:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	return Rendered{SQL: b.String(), Slots: slots}
}

// Where renders the condition groups without the WHERE keyword. Columns
// are qualified with alias when it is not empty. It returns "" for a
// finder without conditions.
func (q *Query) Where(d, alias string) string {
	s, _ := q.where(d, alias)
	return s
}

// OrderBy renders the ordering without the ORDER BY keywords.
func (q *Query) OrderBy(alias string) string {
	parts := make([]string, len(q.Orders))
	for i, o := range q.Orders {
		parts[i] = qualify(alias, o.Column)
		if o.Desc {
			parts[i] += " DESC"
		}
	}
	return strings.Join(parts, ", ")
}

func (q *Query) where(d, alias string) (string, []Slot) {
	var (
		b     strings.Builder
		slots []Slot
		arg   int
	)
	multi := len(q.Groups) > 1
	for i, g := range q.Groups {
		if i > 0 {
			b.WriteString(" OR ")
		}
		paren := multi && len(g) > 1
		if paren {
			b.WriteByte('(')
		}
		for j, c := range g {
			if j > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(condition(d, qualify(alias, c.Column), c.Op))
			for k := 0; k < c.Op.Arity(); k++ {
				slots = append(slots, Slot{Column: c.Column, Op: c.Op, Arg: arg})
				arg++
			}
		}
		if paren {
			b.WriteByte(')')
		}
	}
	return b.String(), slots
}

func condition(d, col string, op Op) string {
	switch op {
	case NEQ:
		return col + " <> ?"
	case GT:
		return col + " > ?"
	case GTE:
		return col + " >= ?"
	case LT:
		return col + " < ?"
	case LTE:
		return col + " <= ?"
	case Like, StartsWith, EndsWith, Contains:
		return col + " LIKE ?"
	case NotLike, NotContains:
		return col + " NOT LIKE ?"
	case In:
		if d == dialect.Postgres {
			return col + " = ANY(?)"
		}
		return col + " IN (?)"
	case NotIn:
		if d == dialect.Postgres {
			return col + " <> ALL(?)"
		}
		return col + " NOT IN (?)"
	case Between:
		return col + " BETWEEN ? AND ?"
	case IsNull:
		return col + " IS NULL"
	case NotNull:
		return col + " IS NOT NULL"
	case IsTrue:
		return col + " = TRUE"
	case IsFalse:
		return col + " = FALSE"
	default:
		return col + " = ?"
	}
}

func qualify(alias, col string) string {
	if alias == "" {
		return col
	}
	return alias + "." + col
}
