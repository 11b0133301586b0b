package schema

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dialect/sql"
	"github.com/syssam/reposql/dml"
	entity "github.com/syssam/reposql/schema"
)

type ticket struct {
	ID       *int64
	Title    *string
	State    *string
	Priority *int
	Note     *string
}

func ticketDescriptor(t *testing.T) *entity.Descriptor {
	r := entity.NewRegistry()
	entity.RegisterIn(r, func(b *entity.Builder[ticket]) {
		b.Table("tickets").Fields(
			entity.Field("id", func(k *ticket) **int64 { return &k.ID }).PrimaryKey(),
			entity.Field("title", func(k *ticket) **string { return &k.Title }),
			entity.Field("state", func(k *ticket) **string { return &k.State }),
			entity.Enum("priority", func(k *ticket) **int { return &k.Priority }, "LOW", "HIGH"),
			entity.Field("note", func(k *ticket) **string { return &k.Note }),
		)
	})
	d, err := entity.OfIn[ticket](r)
	require.NoError(t, err)
	return d
}

func sqliteDB(t *testing.T, ddl string) *sql.Driver {
	drv, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	_, err = drv.DB().Exec(ddl)
	require.NoError(t, err)
	return drv
}

func TestInspectorSQLite(t *testing.T) {
	ctx := context.Background()
	drv := sqliteDB(t, `CREATE TABLE tickets (
		id INTEGER PRIMARY KEY,
		title VARCHAR(80) NOT NULL,
		state TEXT NOT NULL DEFAULT 'OPEN',
		priority INTEGER NOT NULL DEFAULT 1,
		opened_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	insp, err := NewInspector(drv)
	require.NoError(t, err)

	cols, err := insp.Columns(ctx, "tickets")
	require.NoError(t, err)
	require.Len(t, cols, 5)
	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)
	assert.Equal(t, coerce.TypeVarChar, cols[1].SQLType)
	assert.False(t, cols[1].Nullable)
	assert.Nil(t, cols[1].Default)
	require.NotNil(t, cols[2].Default)
	assert.Equal(t, "'OPEN'", *cols[2].Default)
	assert.True(t, cols[4].Nullable)

	def, ok, err := insp.Default(ctx, "tickets", "STATE")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dml.Default{Literal: "'OPEN'", Type: coerce.TypeLongVarChar}, def)

	_, ok, err = insp.Default(ctx, "tickets", "title")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = insp.Columns(ctx, "missing")
	assert.True(t, reposql.IsConfigError(err))

	// Cached until invalidated.
	_, err = drv.DB().Exec(`ALTER TABLE tickets ADD COLUMN note TEXT`)
	require.NoError(t, err)
	cols, err = insp.Columns(ctx, "tickets")
	require.NoError(t, err)
	assert.Len(t, cols, 5)
	insp.Invalidate("tickets")
	cols, err = insp.Columns(ctx, "tickets")
	require.NoError(t, err)
	assert.Len(t, cols, 6)
}

func TestInspectorLiveDefaultsOnInsert(t *testing.T) {
	ctx := context.Background()
	drv := sqliteDB(t, `CREATE TABLE tickets (id INTEGER PRIMARY KEY, title TEXT, state TEXT NOT NULL DEFAULT 'OPEN', priority INTEGER NOT NULL DEFAULT 1, note TEXT)`)
	insp, err := NewInspector(drv)
	require.NoError(t, err)

	stmt, err := dml.Insert(ctx, dialect.SQLite, ticketDescriptor(t), &ticket{Title: ptr("printer")}, insp)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO tickets (title, state, priority, note) VALUES (?, ?, ?, ?)", stmt.SQL)
	assert.Equal(t, []any{"printer", "OPEN", int64(1), nil}, stmt.Args)
}

func TestInspectorPostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(sql.Rebind(dialect.Postgres, postgresColumns)).
		WithArgs("tickets").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "column_default", "nullable", "pk"}).
			AddRow("id", "bigint", "nextval('tickets_id_seq'::regclass)", false, true).
			AddRow("state", "character varying", "'OPEN'::character varying", false, false))

	insp, err := NewInspector(sql.OpenDB(dialect.Postgres, db))
	require.NoError(t, err)
	cols, err := insp.Columns(context.Background(), "tickets")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, coerce.TypeBigInt, cols[0].SQLType)
	assert.True(t, cols[0].PrimaryKey)
	assert.Equal(t, coerce.TypeVarChar, cols[1].SQLType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewInspectorDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, err = NewInspector(sql.OpenDB("oracle", db))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	desc := ticketDescriptor(t)
	cols := []*ColumnInfo{
		{Name: "id", Type: "INTEGER", SQLType: coerce.TypeInteger, PrimaryKey: true},
		{Name: "title", Type: "TEXT", SQLType: coerce.TypeLongVarChar, Nullable: true},
		{Name: "state", Type: "TIMESTAMP", SQLType: coerce.TypeTimestamp, Nullable: true},
		{Name: "priority", Type: "TEXT", SQLType: coerce.TypeLongVarChar},
		{Name: "owner", Type: "TEXT", SQLType: coerce.TypeLongVarChar},
		{Name: "created", Type: "TEXT", SQLType: coerce.TypeLongVarChar, Default: ptr("now")},
	}

	res := Validate(desc, cols)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "tickets.priority: enum column is stored as TEXT, not an integer type", res.Errors[0].Error())
	assert.Equal(t, "tickets.note: column does not exist", res.Errors[1].Error())
	var warned []string
	for _, w := range res.Warnings {
		warned = append(warned, w.Column)
	}
	assert.ElementsMatch(t, []string{"state", "priority", "owner"}, warned)
	assert.Contains(t, res.String(), "Errors:")

	res = Validate(desc, cols, AllowMissingColumns(), SkipTypes())
	assert.Len(t, res.Errors, 1)
	assert.Len(t, res.Warnings, 2)

	res = Validate(desc, append(cols[:3:3],
		&ColumnInfo{Name: "priority", Type: "INTEGER", SQLType: coerce.TypeInteger},
		&ColumnInfo{Name: "note", Type: "TEXT", SQLType: coerce.TypeLongVarChar, Nullable: true},
	), SkipTypes())
	assert.False(t, res.HasErrors())
	assert.False(t, res.HasWarnings())
	assert.Equal(t, "No issues found", res.String())
}

func TestValidateAll(t *testing.T) {
	drv := sqliteDB(t, `CREATE TABLE tickets (id INTEGER PRIMARY KEY, title TEXT, state TEXT, priority INTEGER NOT NULL DEFAULT 0, note TEXT)`)
	insp, err := NewInspector(drv)
	require.NoError(t, err)
	res := ValidateAll(context.Background(), insp, []*entity.Descriptor{ticketDescriptor(t)})
	assert.False(t, res.HasErrors(), res.String())
}

func ptr[T any](v T) *T { return &v }
