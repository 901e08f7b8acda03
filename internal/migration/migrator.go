package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/autoservice/internal/config"
)

//go:embed sql
var migrationsFS embed.FS

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

// AutoMigrate applies pending migrations on start when DB_AUTO_MIGRATE is set.
var AutoMigrate = fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, m *Migrator) {
	if !cfg.Database.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{OnStart: m.Up})
})

// Migrator wraps goose operations over the embedded per-dialect migrations.
type Migrator struct {
	db     *bun.DB
	dir    string
	logger *zap.Logger
}

// New constructs a goose-backed migrator.
func New(cfg config.Config, db *bun.DB, logger *zap.Logger) (*Migrator, error) {
	dialect, err := gooseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger: logger})
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}

	return &Migrator{
		db:     db,
		dir:    path.Join("sql", migrationsSubdir(dialect)),
		logger: logger,
	}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db.DB, m.dir); err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")

			return nil
		}
		return err
	}

	m.logger.Info("migrations applied")

	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		if err := goose.DownToContext(ctx, m.db.DB, m.dir, 0); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))

		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, m.db.DB, m.dir); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")

				return nil
			}
			return err
		}
	}

	m.logger.Info("migrations rolled back", zap.Int("steps", steps))

	return nil
}

// Version reports the currently applied schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return goose.GetDBVersionContext(ctx, m.db.DB)
}

// State describes one embedded migration and whether it is applied.
type State struct {
	Version int64
	Name    string
	Applied bool
}

// Status lists the embedded migrations against the current schema version.
func (m *Migrator) Status(ctx context.Context) ([]State, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}

	migrations, err := goose.CollectMigrations(m.dir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}

	states := make([]State, 0, len(migrations))
	for _, mig := range migrations {
		states = append(states, State{
			Version: mig.Version,
			Name:    path.Base(mig.Source),
			Applied: mig.Version <= current,
		})
	}
	return states, nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case "postgres", "pg":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}

func migrationsSubdir(dialect string) string {
	if dialect == "sqlite3" {
		return "sqlite"
	}
	return dialect
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "no migration") || strings.Contains(msg, "no current version")
}

type gooseLogger struct {
	logger *zap.Logger
}

func (g gooseLogger) Printf(format string, args ...interface{}) {
	g.logger.Sugar().Debugf(strings.TrimSpace(format), args...)
}

func (g gooseLogger) Fatalf(format string, args ...interface{}) {
	g.logger.Sugar().Fatalf(strings.TrimSpace(format), args...)
}
