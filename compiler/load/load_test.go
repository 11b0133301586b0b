package load

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/schema"
)

func TestDir(t *testing.T) {
	specs, err := Dir("testdata/valid")
	require.NoError(t, err)
	require.Len(t, specs, 2)

	lines, orders := specs[0], specs[1]
	assert.Equal(t, "order_lines", lines.Table)
	assert.Equal(t, "OrderLine", lines.Name)
	assert.Equal(t, filepath.Join("testdata/valid", "order_lines.yml")+":1", lines.Pos)
	assert.Equal(t, "orders", orders.Table)
	assert.Equal(t, filepath.Join("testdata/valid", "orders.yaml")+":2", orders.Pos)
	require.Len(t, orders.Columns, 5)
	assert.Equal(t, []string{"LOW", "NORMAL", "HIGH"}, orders.Columns[3].Enum)
	require.NotNil(t, orders.Columns[2].Default)
	assert.Equal(t, "'NEW'", *orders.Columns[2].Default)
	assert.True(t, orders.Columns[4].Ignore)

	r := schema.NewRegistry()
	descs, err := Register(r, specs)
	require.NoError(t, err)
	require.Len(t, descs, 2)

	d, err := r.Lookup(schema.RecordKey("orders"))
	require.NoError(t, err)
	assert.Same(t, descs[1], d)
	c, ok := d.Column("created_at")
	require.True(t, ok)
	assert.Equal(t, coerce.TypeTimestamp, c.Type)

	ld, err := r.Lookup(schema.RecordKey("order_lines"))
	require.NoError(t, err)
	c, ok = ld.ColumnForProperty("item")
	require.True(t, ok)
	assert.Equal(t, "sku", c.Name)
}

func TestRegisterUnresolvedColumn(t *testing.T) {
	specs, err := Path("testdata/badref")
	require.NoError(t, err)
	require.Len(t, specs, 2)
	_, err = Register(schema.NewRegistry(), specs)
	require.Error(t, err)
	assert.True(t, reposql.IsConfigError(err))
	assert.Contains(t, err.Error(), "parent_id")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		tables  []string
		wantErr string
	}{
		{
			name:   "Single",
			in:     "table: t\ncolumns:\n  - name: id\n",
			tables: []string{"t"},
		},
		{
			name:   "Stream",
			in:     "table: a\ncolumns: [{name: id}]\n---\ntable: b\ncolumns: [{name: id}]\n",
			tables: []string{"a", "b"},
		},
		{
			name:    "MissingTable",
			in:      "columns: [{name: id}]\n",
			wantErr: "missing table name",
		},
		{
			name:    "NoColumns",
			in:      "table: t\n",
			wantErr: "no columns",
		},
		{
			name:    "Syntax",
			in:      "table: [\n",
			wantErr: "load: x.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := Parse("x.yaml", []byte(tt.in))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			var tables []string
			for _, s := range specs {
				tables = append(tables, s.Table)
			}
			assert.Equal(t, tt.tables, tables)
		})
	}
}

func TestIsSpecFile(t *testing.T) {
	assert.True(t, IsSpecFile("a.yaml"))
	assert.True(t, IsSpecFile("a.YML"))
	assert.False(t, IsSpecFile("a.go"))
}
