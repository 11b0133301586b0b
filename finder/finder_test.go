package finder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/dialect"
	"github.com/syssam/reposql/finder"
	"github.com/syssam/reposql/schema"
)

func TestParseAndRender(t *testing.T) {
	q, err := finder.Parse("findByAgeGreaterThanAndCityOrderByNameDesc")
	require.NoError(t, err)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, []finder.Condition{
		{Property: "age", Column: "age", Op: finder.GT},
		{Property: "city", Column: "city", Op: finder.EQ},
	}, q.Groups[0])
	assert.Equal(t, []finder.Order{{Property: "name", Column: "name", Desc: true}}, q.Orders)

	r := q.Render(dialect.SQLite, "users", nil)
	assert.Equal(t, "SELECT * FROM users WHERE age > ? AND city = ? ORDER BY name DESC", r.SQL)
	assert.Len(t, r.Slots, 2)
	assert.Equal(t, 2, q.NumArgs())
}

func TestOperators(t *testing.T) {
	tests := []struct {
		method string
		where  string
		args   int
	}{
		{"findByName", "name = ?", 1},
		{"findByNameIs", "name = ?", 1},
		{"findByNameEquals", "name = ?", 1},
		{"findByNameNot", "name <> ?", 1},
		{"findByNameIsNot", "name <> ?", 1},
		{"findByAgeGreaterThan", "age > ?", 1},
		{"findByAgeGreaterThanEqual", "age >= ?", 1},
		{"findByAgeLessThan", "age < ?", 1},
		{"findByAgeLessThanEqual", "age <= ?", 1},
		{"findByCreatedAtAfter", "created_at > ?", 1},
		{"findByCreatedAtBefore", "created_at < ?", 1},
		{"findByNameLike", "name LIKE ?", 1},
		{"findByNameNotLike", "name NOT LIKE ?", 1},
		{"findByNameStartingWith", "name LIKE ?", 1},
		{"findByNameStartsWith", "name LIKE ?", 1},
		{"findByNameEndingWith", "name LIKE ?", 1},
		{"findByNameEndsWith", "name LIKE ?", 1},
		{"findByNameContaining", "name LIKE ?", 1},
		{"findByNameContains", "name LIKE ?", 1},
		{"findByNameNotContaining", "name NOT LIKE ?", 1},
		{"findByAgeIn", "age IN (?)", 1},
		{"findByAgeNotIn", "age NOT IN (?)", 1},
		{"findByAgeBetween", "age BETWEEN ? AND ?", 2},
		{"findByEmailIsNull", "email IS NULL", 0},
		{"findByEmailNull", "email IS NULL", 0},
		{"findByEmailIsNotNull", "email IS NOT NULL", 0},
		{"findByEmailNotNull", "email IS NOT NULL", 0},
		{"findByActiveTrue", "active = TRUE", 0},
		{"findByActiveIsTrue", "active = TRUE", 0},
		{"findByActiveFalse", "active = FALSE", 0},
		{"findByActiveIsFalse", "active = FALSE", 0},
		{"findByNameIsEqualTo", "name = ?", 1},
		{"findByAgeIsGreaterThan", "age > ?", 1},
		{"findByAgeIsGreaterThanEqual", "age >= ?", 1},
		{"findByAgeIsLessThan", "age < ?", 1},
		{"findByAgeIsLessThanEqual", "age <= ?", 1},
		{"findByCreatedAtIsAfter", "created_at > ?", 1},
		{"findByCreatedAtIsBefore", "created_at < ?", 1},
		{"findByAgeIsBetween", "age BETWEEN ? AND ?", 2},
		{"findByAgeIsIn", "age IN (?)", 1},
		{"findByAgeIsNotIn", "age NOT IN (?)", 1},
		{"findByNameIsLike", "name LIKE ?", 1},
		{"findByNameIsNotLike", "name NOT LIKE ?", 1},
		{"findByNameIsStartingWith", "name LIKE ?", 1},
		{"findByNameIsEndingWith", "name LIKE ?", 1},
		{"findByNameIsContaining", "name LIKE ?", 1},
		{"findByNameIsNotContaining", "name NOT LIKE ?", 1},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			q, err := finder.Parse(tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.where, q.Where(dialect.SQLite, ""))
			assert.Equal(t, tt.args, q.NumArgs())
		})
	}
}

func TestOrGroups(t *testing.T) {
	q, err := finder.Parse("findByNameAndAgeOrEmailIsNullOrCityIn")
	require.NoError(t, err)
	require.Len(t, q.Groups, 3)
	assert.Len(t, q.Groups[0], 2)
	assert.Equal(t, "(name = ? AND age = ?) OR email IS NULL OR city IN (?)", q.Where(dialect.MySQL, ""))

	// A property containing Or/And inside a camel word is not split.
	q, err = finder.Parse("findByOrderNoAndBrandName")
	require.NoError(t, err)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, "order_no", q.Groups[0][0].Column)
	assert.Equal(t, "brand_name", q.Groups[0][1].Column)
}

func TestBindPositions(t *testing.T) {
	q, err := finder.Parse("findByEmailIsNullAndAgeBetweenAndActiveTrueAndCity")
	require.NoError(t, err)
	r := q.Render(dialect.SQLite, "users", []string{"id", "name"})
	assert.Equal(t, "SELECT id, name FROM users WHERE email IS NULL AND age BETWEEN ? AND ? AND active = TRUE AND city = ?", r.SQL)
	assert.Equal(t, []finder.Slot{
		{Column: "age", Op: finder.Between, Arg: 0},
		{Column: "age", Op: finder.Between, Arg: 1},
		{Column: "city", Op: finder.EQ, Arg: 2},
	}, r.Slots)

	args, err := q.Bind([]any{18, 30, "Paris"})
	require.NoError(t, err)
	assert.Equal(t, []any{18, 30, "Paris"}, args)

	_, err = q.Bind([]any{18})
	require.Error(t, err)
	assert.True(t, reposql.IsBindingError(err))
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		method string
		order  string
	}{
		{"findByCityOrderByName", "name"},
		{"findByCityOrderByNameAsc", "name"},
		{"findByCityOrderByLastNameDescFirstNameAsc", "last_name DESC, first_name"},
		{"findByCityOrderByAgeDescAndName", "age DESC, name"},
		{"findAllByOrderByNameDesc", "name DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			q, err := finder.Parse(tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.order, q.OrderBy(""))
		})
	}
	q, err := finder.Parse("findAllByOrderByNameDesc")
	require.NoError(t, err)
	assert.Empty(t, q.Groups)
	assert.Equal(t, "SELECT * FROM users ORDER BY name DESC", q.Render(dialect.SQLite, "users", nil).SQL)
	assert.Equal(t, "t0.name DESC", q.OrderBy("t0"))
}

func TestSubjects(t *testing.T) {
	tests := []struct {
		method string
		sql    string
	}{
		{"countByCity", "SELECT COUNT(*) FROM users WHERE city = ?"},
		{"existsByEmail", "SELECT 1 FROM users WHERE email = ? LIMIT 1"},
		{"deleteByAgeLessThan", "DELETE FROM users WHERE age < ?"},
		{"removeByCity", "DELETE FROM users WHERE city = ?"},
		{"readByCity", "SELECT * FROM users WHERE city = ?"},
		{"getByCity", "SELECT * FROM users WHERE city = ?"},
		{"queryByCity", "SELECT * FROM users WHERE city = ?"},
		{"findFirstByCityOrderByAgeDesc", "SELECT * FROM users WHERE city = ? ORDER BY age DESC LIMIT 1"},
		{"findTopByCity", "SELECT * FROM users WHERE city = ? LIMIT 1"},
		{"findTop10ByCity", "SELECT * FROM users WHERE city = ? LIMIT 10"},
		{"findDistinctByCity", "SELECT DISTINCT * FROM users WHERE city = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			q, err := finder.Parse(tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, q.Render(dialect.SQLite, "users", nil).SQL)
		})
	}
}

func TestPostgresIn(t *testing.T) {
	q, err := finder.Parse("findByIdInAndCityNotIn")
	require.NoError(t, err)
	assert.Equal(t, "t0.id = ANY(?) AND t0.city <> ALL(?)", q.Where(dialect.Postgres, "t0"))
}

func TestParseErrors(t *testing.T) {
	for _, m := range []string{"save", "findAll", "lookupByName", "findBy"} {
		t.Run(m, func(t *testing.T) {
			_, err := finder.Parse(m)
			if m == "findBy" {
				// Bare prefix has no conditions; it is a valid find-all.
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, reposql.ErrUnsupportedOperation)
		})
	}
	for _, m := range []string{"findByNameAnd", "findByOrAge", "findByNameOrderBy", "countTop3ByName", "findByNameOrderByDesc"} {
		t.Run(m, func(t *testing.T) {
			_, err := finder.Parse(m)
			require.Error(t, err)
			assert.True(t, reposql.IsConfigError(err))
		})
	}
	assert.True(t, finder.IsFinder("findTop3ByName"))
	assert.False(t, finder.IsFinder("findAll"))
}

type person struct {
	ID       int64
	Nickname string
	City     string
}

func TestResolve(t *testing.T) {
	r := schema.NewRegistry()
	schema.RegisterIn(r, func(b *schema.Builder[person]) {
		b.Table("people").Fields(
			schema.Field("id", func(p *person) *int64 { return &p.ID }).PrimaryKey(),
			schema.Field("nick_txt", func(p *person) *string { return &p.Nickname }).Property("nick"),
			schema.Field("city", func(p *person) *string { return &p.City }),
		)
	})
	d, err := schema.OfIn[person](r)
	require.NoError(t, err)

	q, err := finder.Parse("findByNickAndCityOrderByNick")
	require.NoError(t, err)
	require.NoError(t, q.Resolve(d))
	assert.Equal(t, "nick_txt = ? AND city = ?", q.Where(dialect.SQLite, ""))
	assert.Equal(t, "nick_txt", q.OrderBy(""))

	q, err = finder.Parse("findByAge")
	require.NoError(t, err)
	err = q.Resolve(d)
	require.Error(t, err)
	assert.True(t, reposql.IsConfigError(err))
	assert.Contains(t, err.Error(), "age")
}
