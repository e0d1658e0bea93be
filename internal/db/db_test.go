package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteCreatesUsersTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clipfeed.db")

	db, err := Open("sqlite", path)
	require.NoError(t, err)
	defer Close(db)

	var count int
	err = db.Get(&count, `SELECT COUNT(*) FROM users`)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipfeed.db")

	first, err := Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, Close(first))

	second, err := Open("sqlite", path)
	require.NoError(t, err)
	assert.NoError(t, Close(second))
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", dialect("sqlite"))
	assert.Equal(t, "postgres", dialect("pgx"))
	assert.Equal(t, "mysql", dialect("mysql"))
}
