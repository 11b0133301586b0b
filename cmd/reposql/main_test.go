package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// testDB creates a sqlite database file with one table.
func testDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, title VARCHAR(64) NOT NULL, body TEXT);
		INSERT INTO notes (id, title, body) VALUES (1, 'first', 'hello'), (2, 'second', NULL);`)
	require.NoError(t, err)
	return path
}

const notesSpec = `
table: notes
columns:
  - {name: id, type: INTEGER, primary_key: true}
  - {name: title, type: VARCHAR(64)}
  - {name: body, type: TEXT}
`

func writeSpec(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte(body), 0o644))
	return dir
}

func TestParseCmd(t *testing.T) {
	out, err := run(t, "parse", filepath.Join("..", "..", "compiler", "load", "testdata", "valid"))
	require.NoError(t, err)
	assert.Contains(t, out, "entities:")
	assert.Contains(t, out, "table: orders")
	assert.Contains(t, out, "table: order_lines")

	_, err = run(t, "parse", filepath.Join("..", "..", "compiler", "load", "testdata", "badref"))
	assert.Error(t, err)
}

func TestQueryCmd(t *testing.T) {
	dsn := testDB(t)

	out, err := run(t, "query", "--dsn", dsn, "SELECT title, body FROM notes WHERE id = :id", "-p", "id=1")
	require.NoError(t, err)
	assert.Equal(t, "- title: first\n  body: hello\n", out)

	out, err = run(t, "query", "--dsn", dsn, "--exec", "DELETE FROM notes WHERE title = :title", "-p", "title=second")
	require.NoError(t, err)
	assert.Equal(t, "affected: 1\n", out)

	_, err = run(t, "query", "--dsn", dsn, "SELECT * FROM notes WHERE id = :id")
	assert.Error(t, err, "missing parameter")

	_, err = run(t, "query", "--dsn", dsn, "SELECT 1", "-p", "broken")
	assert.Error(t, err)
}

func TestInspectCmd(t *testing.T) {
	dsn := testDB(t)

	out, err := run(t, "inspect", "--dsn", dsn, "notes")
	require.NoError(t, err)
	assert.Contains(t, out, "notes:")
	assert.Contains(t, out, "name: title")
	assert.Contains(t, out, "primary_key: true")

	out, err = run(t, "inspect", "--dsn", dsn, "--specs", writeSpec(t, notesSpec))
	require.NoError(t, err)
	assert.Contains(t, out, "No issues found")

	out, err = run(t, "inspect", "--dsn", dsn, "--specs", writeSpec(t, notesSpec+"  - {name: author, type: TEXT}\n"))
	require.Error(t, err)
	assert.Contains(t, out, "notes.author: column does not exist")

	_, err = run(t, "inspect", "--dsn", dsn)
	assert.Error(t, err)
}

func TestGenCmd(t *testing.T) {
	target := filepath.Join(t.TempDir(), "entity")
	_, err := run(t, "gen", "--target", target, writeSpec(t, notesSpec))
	require.NoError(t, err)

	src, err := os.ReadFile(filepath.Join(target, "note.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package entity")
	assert.Contains(t, string(src), "type Note struct {")
	assert.Contains(t, string(src), `b.Table("notes")`)
}

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"a=1", "b=x=y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1", "b": "x=y"}, p)

	_, err = parseParams([]string{"=1"})
	assert.Error(t, err)
}
