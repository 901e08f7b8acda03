package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/autoservice/internal/config"
)

func TestSelectDialect(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres", "mysql"} {
		dial, err := selectDialect(driver)
		require.NoError(t, err, driver)
		assert.NotNil(t, dial, driver)
	}

	_, err := selectDialect("oracle")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open(config.Database{Driver: "sqlite"})
	assert.ErrorContains(t, err, "empty DSN")
}

func TestNewSQLiteLifecycle(t *testing.T) {
	cfg := config.Config{
		Database: config.Database{
			Driver:       "sqlite",
			DSN:          "file:" + filepath.Join(t.TempDir(), "service.db") + "?_fk=1",
			MaxOpenConns: 1,
		},
	}

	lc := fxtest.NewLifecycle(t)
	db, err := New(lc, cfg, zap.NewNop())
	require.NoError(t, err)

	lc.RequireStart()

	var one int
	require.NoError(t, db.NewSelect().ColumnExpr("1").Scan(context.Background(), &one))
	assert.Equal(t, 1, one)
	assert.Equal(t, 1, db.DB.Stats().MaxOpenConnections)

	lc.RequireStop()
	assert.Error(t, db.DB.Ping())
}
