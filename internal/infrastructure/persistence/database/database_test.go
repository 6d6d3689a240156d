package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionVerifiesSQLite(t *testing.T) {
	logger := logging.NewDiscardLogger()
	db, err := NewConnection(Config{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "pages.db"),
	}, logger)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DriverSQLite, db.Driver)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	require.NoError(t, verifyConnection(context.Background(), db.DB, db.Driver, logger))

	require.NoError(t, db.Close())
	assert.Error(t, verifyConnection(context.Background(), db.DB, db.Driver, logger))
}

func TestDataSourceSelection(t *testing.T) {
	driver, dsn, err := dataSource(Config{TursoDatabase: "libsql://pages.turso.io", TursoToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, DriverLibSQL, driver)
	assert.Equal(t, "libsql://pages.turso.io?authToken=tok", dsn)

	_, _, err = dataSource(Config{Driver: DriverLibSQL})
	assert.Error(t, err)

	driver, dsn, err = dataSource(Config{SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, driver)
	assert.Contains(t, dsn, ":memory:?")
}
