package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	sessionTracer = otel.Tracer("github.com/Additional-Code/autoservice/session")
	sessionMeter  = otel.Meter("github.com/Additional-Code/autoservice/session")
)

// Module provides the session manager to Fx.
var Module = fx.Provide(NewManager)

var errAborted = errors.New("unit of work exited without returning")

// Session holds the pending changes of exactly one unit of work.
//
// It satisfies bun.IDB and must not be used after the scope that produced it
// returns; statements on a closed session fail with sql.ErrTxDone.
type Session struct {
	bun.Tx
}

// Func is the body of a unit of work.
type Func func(ctx context.Context, sess *Session) error

// Manager hands out sessions bound to the configured database.
type Manager struct {
	db       *bun.DB
	logger   *zap.Logger
	outcomes metric.Int64Counter
}

// NewManager wires a Manager over the order store.
func NewManager(db *bun.DB, logger *zap.Logger) (*Manager, error) {
	outcomes, err := sessionMeter.Int64Counter("autoservice.session.outcomes",
		metric.WithDescription("Units of work by outcome"),
	)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{db: db, logger: logger, outcomes: outcomes}, nil
}

// Do runs fn in a new session and commits when it returns nil.
//
// An error from fn rolls the session back and is returned unchanged. A panic
// rolls back and is re-raised. A failed commit is followed by a rollback
// attempt and the commit error is returned.
func (m *Manager) Do(ctx context.Context, fn Func) error {
	return m.run(ctx, "Session.Do", fn, true)
}

// Read runs fn in a new session that is always rolled back.
func (m *Manager) Read(ctx context.Context, fn Func) error {
	return m.run(ctx, "Session.Read", fn, false)
}

func (m *Manager) run(ctx context.Context, name string, fn Func, commit bool) error {
	ctx, span := sessionTracer.Start(ctx, name)
	defer span.End()

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		m.record(ctx, "begin_failed")
		return fmt.Errorf("begin session: %w", err)
	}
	sess := &Session{Tx: tx}

	// finished stays false when fn panics or exits via runtime.Goexit.
	finished := false
	defer func() {
		if finished {
			return
		}
		if p := recover(); p != nil {
			m.rollback(ctx, tx, "panic", fmt.Errorf("panic: %v", p))
			span.SetStatus(codes.Error, "panic")
			panic(p)
		}
		m.rollback(ctx, tx, "aborted", errAborted)
		span.SetStatus(codes.Error, "aborted")
	}()

	err = fn(ctx, sess)
	finished = true
	if err != nil {
		m.rollback(ctx, tx, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return err
	}

	if !commit {
		m.rollback(ctx, tx, "read", nil)
		return nil
	}

	if err := tx.Commit(); err != nil {
		m.logger.Error("session commit failed", zap.Error(err))
		m.rollback(ctx, tx, "commit_failed", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return err
	}

	m.record(ctx, "committed")
	return nil
}

func (m *Manager) rollback(ctx context.Context, tx bun.Tx, outcome string, cause error) {
	m.record(ctx, outcome)

	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		m.logger.Error("session rollback failed", zap.String("outcome", outcome), zap.Error(err))
	}
	if cause != nil {
		m.logger.Warn("session rolled back", zap.String("outcome", outcome), zap.Error(cause))
	}
}

func (m *Manager) record(ctx context.Context, outcome string) {
	m.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
