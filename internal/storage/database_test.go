package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaverse/internal/config"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, "sqlite3"))
	// idempotent
	require.NoError(t, Migrate(db, "sqlite3"))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('users','user_tokens')`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: path})
	require.NoError(t, err)
	defer db.Close()
	assert.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "postgres", DSN: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestMySQLDSNForcesParseTime(t *testing.T) {
	dsn, err := mysqlDSN("visa:secret@tcp(db:3306)/visaverse?charset=utf8mb4")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "tcp(db:3306)/visaverse")

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}

func TestMigrateReportsFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("disk full"))

	err = Migrate(db, "mysql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate (mysql)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUnknownDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	assert.Error(t, Migrate(db, "oracle"))
}
