package sql

import (
	"context"
	"strings"
	"testing"

	"github.com/syssam/reposql/dialect"

	"github.com/DATA-DOG/go-sqlmock"
)

func BenchmarkRebind(b *testing.B) {
	queries := map[string]string{
		"small":  "SELECT id, name FROM users WHERE id = ?",
		"quoted": "SELECT '?' AS q, name FROM users WHERE name = ? AND note <> 'a?b'",
		"large":  "INSERT INTO users (a, b, c, d, e, f, g, h) VALUES " + strings.TrimSuffix(strings.Repeat("(?, ?, ?, ?, ?, ?, ?, ?), ", 50), ", "),
	}
	for name, q := range queries {
		for _, d := range []string{dialect.SQLite, dialect.Postgres} {
			b.Run(name+"/"+d, func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					Rebind(d, q)
				}
			})
		}
	}
}

func BenchmarkStatsDriverExec(b *testing.B) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < b.N; i++ {
		mock.ExpectExec("UPDATE users SET age = $1 WHERE id = $2").WillReturnResult(sqlmock.NewResult(0, 1))
	}
	drv := NewStatsDriver(OpenDB(dialect.Postgres, db))
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := drv.Exec(ctx, "UPDATE users SET age = ? WHERE id = ?", []any{30, 1}, nil); err != nil {
			b.Fatal(err)
		}
	}
}
