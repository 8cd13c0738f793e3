package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	cases := map[string]Dialect{
		"":         SQLite,
		"sqlite":   SQLite,
		"SQLite3":  SQLite,
		"pgx":      Postgres,
		"postgres": Postgres,
	}
	for in, want := range cases {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("mysql")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM packages WHERE vehicle_id = ? AND note <> '?' AND package_id = ?"

	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t,
		"SELECT * FROM packages WHERE vehicle_id = $1 AND note <> '?' AND package_id = $2",
		Postgres.Rebind(q),
	)
}

func TestOpenSQLite(t *testing.T) {
	conn, dialect, err := Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	assert.Equal(t, SQLite, dialect)

	var one int
	require.NoError(t, conn.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}
