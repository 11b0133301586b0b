package dml_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/dml"
	"github.com/syssam/reposql/schema"
)

type account struct {
	ID      *int64
	Email   *string
	Status  *string
	Credits *int64
	Updated *time.Time
}

type membership struct {
	OrgID  *int64
	UserID *string
	Role   *string
}

type note struct {
	Text string
}

func descriptors(t *testing.T) (*schema.Descriptor, *schema.Descriptor) {
	r := schema.NewRegistry()
	schema.RegisterIn(r, func(b *schema.Builder[account]) {
		b.Table("accounts").Fields(
			schema.Field("id", func(a *account) **int64 { return &a.ID }).PrimaryKey(),
			schema.Field("email", func(a *account) **string { return &a.Email }),
			schema.Field("status", func(a *account) **string { return &a.Status }).Default("'ACTIVE'"),
			schema.Field("credits", func(a *account) **int64 { return &a.Credits }).Default("10"),
			schema.Field("updated_at", func(a *account) **time.Time { return &a.Updated }).Ignore(),
		)
	})
	schema.RegisterIn(r, func(b *schema.Builder[membership]) {
		b.Table("memberships").Fields(
			schema.Field("org_id", func(m *membership) **int64 { return &m.OrgID }).PrimaryKey(),
			schema.Field("user_id", func(m *membership) **string { return &m.UserID }).PrimaryKey(),
			schema.Field("role", func(m *membership) **string { return &m.Role }),
		)
	})
	acc, err := schema.OfIn[account](r)
	require.NoError(t, err)
	mem, err := schema.OfIn[membership](r)
	require.NoError(t, err)
	return acc, mem
}

func ptr[T any](v T) *T { return &v }

func TestInsert(t *testing.T) {
	acc, mem := descriptors(t)
	ctx := context.Background()

	t.Run("AllValues", func(t *testing.T) {
		a := &account{ID: ptr[int64](1), Email: ptr("a@x"), Status: ptr("BLOCKED"), Credits: ptr[int64](3)}
		stmt, err := dml.Insert(ctx, dialect.SQLite, acc, a, nil)
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO accounts (id, email, status, credits) VALUES (?, ?, ?, ?)", stmt.SQL)
		assert.Equal(t, []any{int64(1), "a@x", "BLOCKED", int64(3)}, stmt.Args)
		assert.Nil(t, stmt.AutoKey)
	})

	t.Run("StaticDefaults", func(t *testing.T) {
		a := &account{Email: ptr("a@x")}
		stmt, err := dml.Insert(ctx, dialect.SQLite, acc, a, nil)
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO accounts (email, status, credits) VALUES (?, ?, ?)", stmt.SQL)
		assert.Equal(t, []any{"a@x", "ACTIVE", int64(10)}, stmt.Args)
		require.NotNil(t, stmt.AutoKey)
		assert.Equal(t, "id", stmt.AutoKey.Name)
	})

	t.Run("NullWithoutDefault", func(t *testing.T) {
		a := &account{ID: ptr[int64](2)}
		stmt, err := dml.Insert(ctx, dialect.SQLite, acc, a, nil)
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO accounts (id, email, status, credits) VALUES (?, ?, ?, ?)", stmt.SQL)
		assert.Equal(t, []any{int64(2), nil, "ACTIVE", int64(10)}, stmt.Args)
	})

	t.Run("LiveDefaultsWin", func(t *testing.T) {
		live := dml.Static{"accounts": {
			"status":  {Literal: "'PENDING'::character varying", Type: coerce.TypeVarChar},
			"credits": {Literal: "nextval('credits_seq'::regclass)", Type: coerce.TypeBigInt},
		}}
		stmt, err := dml.Insert(ctx, dialect.Postgres, acc, &account{}, live)
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO accounts (email, status) VALUES (?, ?) RETURNING id", stmt.SQL)
		assert.Equal(t, []any{nil, "PENDING"}, stmt.Args)
	})

	t.Run("CompositeKey", func(t *testing.T) {
		m := &membership{OrgID: ptr[int64](1), UserID: ptr("u1")}
		stmt, err := dml.Insert(ctx, dialect.SQLite, mem, m, nil)
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO memberships (org_id, user_id, role) VALUES (?, ?, ?)", stmt.SQL)
		assert.Nil(t, stmt.AutoKey)
	})

	t.Run("BadStaticDefault", func(t *testing.T) {
		r := schema.NewRegistry()
		schema.RegisterIn(r, func(b *schema.Builder[account]) {
			b.Table("accounts").Fields(
				schema.Field("id", func(a *account) **int64 { return &a.ID }).PrimaryKey(),
				schema.Field("credits", func(a *account) **int64 { return &a.Credits }).Default("lots"),
			)
		})
		d, err := schema.OfIn[account](r)
		require.NoError(t, err)
		_, err = dml.Insert(ctx, dialect.SQLite, d, &account{ID: ptr[int64](1)}, nil)
		require.Error(t, err)
		assert.True(t, reposql.IsDecodeError(err))
	})
}

func TestUpdate(t *testing.T) {
	acc, mem := descriptors(t)

	stmt, err := dml.Update(acc, &account{ID: ptr[int64](1), Email: ptr("b@x")})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE accounts SET email = ? WHERE id = ?", stmt.SQL)
	assert.Equal(t, []any{"b@x", int64(1)}, stmt.Args)

	stmt, err = dml.Update(mem, &membership{OrgID: ptr[int64](1), UserID: ptr("u1"), Role: ptr("admin")})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE memberships SET role = ? WHERE org_id = ? AND user_id = ?", stmt.SQL)
	assert.Equal(t, []any{"admin", int64(1), "u1"}, stmt.Args)

	_, err = dml.Update(acc, &account{ID: ptr[int64](1)})
	assert.True(t, errors.Is(err, reposql.ErrNothingToUpdate))

	_, err = dml.Update(acc, &account{Email: ptr("b@x")})
	assert.True(t, reposql.IsBindingError(err))
}

func TestDeleteByKey(t *testing.T) {
	_, mem := descriptors(t)

	stmt, err := dml.DeleteByKey(mem, int64(1), "u1")
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM memberships WHERE org_id = ? AND user_id = ?", stmt.SQL)
	assert.Equal(t, []any{int64(1), "u1"}, stmt.Args)

	stmt, err = dml.DeleteByKey(mem, int64(1), nil)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM memberships WHERE org_id = ? AND user_id IS NULL", stmt.SQL)
	assert.Equal(t, []any{int64(1)}, stmt.Args)

	stmt, err = dml.DeleteByKey(mem, (*int64)(nil), "u1")
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM memberships WHERE org_id IS NULL AND user_id = ?", stmt.SQL)
	assert.Equal(t, []any{"u1"}, stmt.Args)

	stmt, err = dml.Delete(mem, &membership{OrgID: ptr[int64](2), UserID: ptr("u2")})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), "u2"}, stmt.Args)

	_, err = dml.DeleteByKey(mem, int64(1))
	require.Error(t, err)
	assert.True(t, reposql.IsBindingError(err))
}

func TestSelect(t *testing.T) {
	acc, mem := descriptors(t)

	stmt, err := dml.SelectByKey(acc, int64(5))
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, email, status, credits, updated_at FROM accounts WHERE id = ?", stmt.SQL)

	stmt, err = dml.SelectAll(mem)
	require.NoError(t, err)
	assert.Equal(t, "SELECT org_id, user_id, role FROM memberships", stmt.SQL)
	assert.Empty(t, stmt.Args)

	stmt, err = dml.Exists(mem, int64(1), "u1")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM memberships WHERE org_id = ? AND user_id = ? LIMIT 1", stmt.SQL)
}

func TestConfigErrors(t *testing.T) {
	r := schema.NewRegistry()
	schema.RegisterIn(r, func(b *schema.Builder[note]) {
		b.Table("notes").Fields(schema.Field("text", func(n *note) *string { return &n.Text }))
	})
	d, err := schema.OfIn[note](r)
	require.NoError(t, err)

	_, err = dml.Insert(context.Background(), dialect.SQLite, d, &note{}, nil)
	assert.True(t, reposql.IsConfigError(err))
	_, err = dml.Update(d, &note{Text: "x"})
	assert.True(t, reposql.IsConfigError(err))
	_, err = dml.DeleteByKey(d)
	assert.True(t, reposql.IsConfigError(err))
	_, err = dml.Insert(context.Background(), dialect.SQLite, nil, &note{}, nil)
	assert.True(t, reposql.IsConfigError(err))

	// Key-less descriptors can still be read.
	stmt, err := dml.SelectAll(d)
	require.NoError(t, err)
	assert.Equal(t, "SELECT text FROM notes", stmt.SQL)
}
