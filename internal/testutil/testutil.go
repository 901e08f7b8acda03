// Package testutil builds migrated throwaway order stores for tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Additional-Code/autoservice/internal/config"
	"github.com/Additional-Code/autoservice/internal/database"
	"github.com/Additional-Code/autoservice/internal/migration"
)

// Config returns an application config pointing at a fresh SQLite file.
func Config(t testing.TB) config.Config {
	t.Helper()

	return config.Config{
		HTTP: config.HTTP{Host: "127.0.0.1", Port: 8080},
		Cache: config.Cache{
			Driver: "noop",
		},
		Messaging: config.Messaging{
			Driver: "noop",
			Kafka:  config.Kafka{Topic: "orders.events"},
		},
		Database: config.Database{
			Driver:       "sqlite",
			DSN:          "file:" + filepath.Join(t.TempDir(), "service.db") + "?_fk=1&_busy_timeout=5000",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Observability: config.Observability{
			ServiceName: "autoservice-test",
			LogLevel:    "debug",
			LogEncoding: "console",
		},
	}
}

// NewDB opens a migrated SQLite store that is closed when the test ends.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	cfg := Config(t)
	db, err := database.Open(cfg.Database)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mig, err := migration.New(cfg, db, zap.NewNop())
	if err != nil {
		t.Fatalf("build migrator: %v", err)
	}
	if err := mig.Up(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}
