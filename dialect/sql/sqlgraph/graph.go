// Package sqlgraph materializes query results into entities and entity
// graphs, and executes the statements built by package dml.
package sqlgraph

import (
	"strconv"
	"strings"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/dialect/sql"
	"github.com/syssam/reposql/schema"
)

// LoadMode selects how associations are loaded.
type LoadMode int

const (
	// Joined loads the root and all associations with one LEFT JOIN query.
	Joined LoadMode = iota
	// Secondary loads associations with one query per association and parent.
	Secondary
)

// String returns the mode name.
func (m LoadMode) String() string {
	if m == Secondary {
		return "secondary"
	}
	return "joined"
}

// Graph is the joined-query plan of an entity and its associations. The
// root table is aliased t0 and the i-th association ti; every selected
// column is labeled <alias>_<column>.
type Graph struct {
	nodes []node
	// labels maps a lowercased result label to its node and column.
	labels map[string]label
}

type node struct {
	alias string
	desc  *schema.Descriptor
	assoc *schema.Association
}

type label struct {
	node int
	col  *schema.Column
}

// NewGraph resolves the associations of desc and returns the joined plan.
// The root must have a primary key to deduplicate joined rows.
func NewGraph(desc *schema.Descriptor) (*Graph, error) {
	if len(desc.PrimaryKey) == 0 {
		return nil, reposql.NewConfigError(desc.Name, "joined load requires a primary key on %s", desc.Table)
	}
	g := &Graph{
		nodes:  []node{{alias: "t0", desc: desc}},
		labels: make(map[string]label),
	}
	for i, a := range desc.Associations {
		t, err := a.Target()
		if err != nil {
			return nil, err
		}
		g.nodes = append(g.nodes, node{alias: "t" + strconv.Itoa(i+1), desc: t, assoc: a})
	}
	for i, n := range g.nodes {
		for _, c := range n.desc.Columns {
			g.labels[strings.ToLower(n.alias+"_"+c.Name)] = label{node: i, col: c}
		}
	}
	return g, nil
}

// Columns returns the aliased select list.
func (g *Graph) Columns() []string {
	var cols []string
	for _, n := range g.nodes {
		for _, c := range n.desc.Columns {
			cols = append(cols, n.alias+"."+c.Name+" AS "+n.alias+"_"+c.Name)
		}
	}
	return cols
}

// KeyOrder orders joined rows by the root key and then by the key of every
// association target, so collections come back in key order.
func (g *Graph) KeyOrder() string {
	var keys []string
	for _, n := range g.nodes {
		for _, c := range n.desc.PrimaryKey {
			keys = append(keys, n.alias+"."+c.Name)
		}
	}
	return strings.Join(keys, ", ")
}

// Select renders the joined query. where and orderBy must qualify root
// columns with the t0 alias; empty strings omit the clauses.
func (g *Graph) Select(where, orderBy string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(g.Columns(), ", "))
	b.WriteString(" FROM ")
	b.WriteString(g.nodes[0].desc.Table)
	b.WriteString(" t0")
	for _, n := range g.nodes[1:] {
		b.WriteString(" LEFT JOIN ")
		b.WriteString(n.desc.Table)
		b.WriteByte(' ')
		b.WriteString(n.alias)
		b.WriteString(" ON ")
		for j, p := range n.assoc.Pairs {
			if j > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString("t0." + p.Local + " = " + n.alias + "." + p.Foreign)
		}
	}
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	return b.String()
}

// Scan materializes the rows of a joined query and closes rows. A row
// contributes to one root, identified by its primary key, and to at most
// one entity per association. One-to-many children are deduplicated by
// primary key; a child whose columns are all null is an outer-join miss.
func (g *Graph) Scan(rows *sql.Rows) (_ []any, err error) {
	defer closeRows(rows, &err)
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	at := make([]*label, len(names))
	for i, n := range names {
		if l, ok := g.labels[strings.ToLower(n)]; ok {
			at[i] = &l
		}
	}
	var (
		roots []any
		seen  = make(map[string]any)
		// children[node][rootKey][childKey] marks attached one-to-many children.
		children = make([]map[string]map[string]bool, len(g.nodes))
	)
	for rows.Next() {
		vals, err := scanRow(rows, len(names))
		if err != nil {
			return nil, err
		}
		// Split the row per node.
		parts := make([]map[*schema.Column]any, len(g.nodes))
		for i := range parts {
			parts[i] = make(map[*schema.Column]any)
		}
		for i, l := range at {
			if l != nil {
				parts[l.node][l.col] = vals[i]
			}
		}
		rootKey := keyString(projection(g.nodes[0].desc, parts[0]))
		root, ok := seen[rootKey]
		if !ok {
			if root, err = materialize(g.nodes[0].desc, parts[0]); err != nil {
				return nil, err
			}
			for _, n := range g.nodes[1:] {
				n.assoc.Reset(root)
			}
			seen[rootKey] = root
			roots = append(roots, root)
		}
		for i, n := range g.nodes[1:] {
			part := parts[i+1]
			if allNull(part) {
				continue
			}
			switch n.assoc.Kind {
			case schema.OneToOne:
				if len(n.assoc.Children(root)) > 0 {
					continue
				}
			case schema.OneToMany:
				if children[i+1] == nil {
					children[i+1] = make(map[string]map[string]bool)
				}
				attached := children[i+1][rootKey]
				if attached == nil {
					attached = make(map[string]bool)
					children[i+1][rootKey] = attached
				}
				ck := keyString(projection(n.desc, part))
				if attached[ck] {
					continue
				}
				attached[ck] = true
			}
			child, err := materialize(n.desc, part)
			if err != nil {
				return nil, err
			}
			n.assoc.Attach(root, child)
		}
	}
	return roots, rows.Err()
}

func projection(desc *schema.Descriptor, part map[*schema.Column]any) []any {
	key := make([]any, len(desc.PrimaryKey))
	for i, c := range desc.PrimaryKey {
		key[i] = part[c]
	}
	return key
}

func materialize(desc *schema.Descriptor, part map[*schema.Column]any) (any, error) {
	e := desc.New()
	for _, c := range desc.Columns {
		v, ok := part[c]
		if !ok {
			continue
		}
		if err := c.Assign(e, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func allNull(part map[*schema.Column]any) bool {
	for _, v := range part {
		if v != nil {
			return false
		}
	}
	return true
}
