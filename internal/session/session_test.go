package session_test

import (
	"context"
	"database/sql"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	repo "github.com/Additional-Code/autoservice/internal/repository/order"
	"github.com/Additional-Code/autoservice/internal/session"
	"github.com/Additional-Code/autoservice/internal/testutil"
)

func setup(t *testing.T) (*bun.DB, *session.Manager, *repo.Repository) {
	t.Helper()

	db := testutil.NewDB(t)
	mgr, err := session.NewManager(db, zap.NewNop())
	require.NoError(t, err)
	return db, mgr, repo.NewRepository()
}

func countOrders(t *testing.T, db *bun.DB, r *repo.Repository) int {
	t.Helper()

	count, err := r.Count(context.Background(), db)
	require.NoError(t, err)
	return count
}

func TestManager_DoCommits(t *testing.T) {
	db, mgr, r := setup(t)
	ctx := context.Background()

	err := mgr.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		if _, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Ivanov", CarInfo: "Toyota Camry"}); err != nil {
			return err
		}
		_, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Petrov", CarInfo: "Honda Civic"})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 2, countOrders(t, db, r))
}

func TestManager_DoRollsBackAndReturnsOriginalError(t *testing.T) {
	db, mgr, r := setup(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := mgr.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		if _, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Ivanov", CarInfo: "Toyota Camry"}); err != nil {
			return err
		}
		return errBoom
	})

	assert.Same(t, errBoom, err)
	assert.Zero(t, countOrders(t, db, r))
}

func TestManager_ConstraintViolationRollsBackWholeUnit(t *testing.T) {
	db, mgr, r := setup(t)
	ctx := context.Background()

	var storeErr error
	err := mgr.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		if _, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Ivanov", CarInfo: "Toyota Camry"}); err != nil {
			return err
		}
		_, storeErr = r.Create(ctx, sess, repo.CreateParams{CustomerName: "", CarInfo: "Honda Civic"})
		return storeErr
	})

	require.Error(t, storeErr)
	assert.Equal(t, storeErr, err, "the storage failure must surface unchanged")
	assert.Zero(t, countOrders(t, db, r), "no partial commit")
}

func TestManager_DoRollsBackOnPanic(t *testing.T) {
	db, mgr, r := setup(t)
	ctx := context.Background()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = mgr.Do(ctx, func(ctx context.Context, sess *session.Session) error {
			if _, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Ivanov", CarInfo: "Toyota Camry"}); err != nil {
				return err
			}
			panic("kaboom")
		})
	})

	assert.Zero(t, countOrders(t, db, r))

	// The connection was released; a new unit of work still succeeds.
	require.NoError(t, mgr.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		_, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Petrov", CarInfo: "Honda Civic"})
		return err
	}))
	assert.Equal(t, 1, countOrders(t, db, r))
}

func TestManager_GoexitReleasesSession(t *testing.T) {
	db, mgr, r := setup(t)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = mgr.Do(ctx, func(ctx context.Context, sess *session.Session) error {
			if _, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Ivanov", CarInfo: "Toyota Camry"}); err != nil {
				return err
			}
			runtime.Goexit()
			return nil
		})
	}()
	<-done

	// The only pooled connection must be back; otherwise this blocks until the deadline.
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, mgr.Do(waitCtx, func(ctx context.Context, sess *session.Session) error {
		_, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Petrov", CarInfo: "Honda Civic"})
		return err
	}))
	assert.Equal(t, 1, countOrders(t, db, r))
}

func TestManager_CommitFailureIsReturned(t *testing.T) {
	_, mgr, _ := setup(t)

	err := mgr.Do(context.Background(), func(ctx context.Context, sess *session.Session) error {
		// Finishing the transaction inside the scope makes the manager's commit fail.
		return sess.Rollback()
	})

	assert.ErrorIs(t, err, sql.ErrTxDone)
}

func TestManager_SessionIsUnusableAfterScope(t *testing.T) {
	_, mgr, r := setup(t)
	ctx := context.Background()

	var leaked *session.Session
	require.NoError(t, mgr.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		leaked = sess
		return nil
	}))

	_, err := r.Create(ctx, leaked, repo.CreateParams{CustomerName: "Ivanov", CarInfo: "Toyota Camry"})
	assert.ErrorIs(t, err, sql.ErrTxDone)
}

func TestManager_ReadNeverCommits(t *testing.T) {
	db, mgr, r := setup(t)
	ctx := context.Background()

	require.NoError(t, mgr.Read(ctx, func(ctx context.Context, sess *session.Session) error {
		_, err := r.Create(ctx, sess, repo.CreateParams{CustomerName: "Ivanov", CarInfo: "Toyota Camry"})
		return err
	}))

	assert.Zero(t, countOrders(t, db, r))
}

func TestManager_BeginFailureIsWrapped(t *testing.T) {
	db, mgr, _ := setup(t)
	require.NoError(t, db.Close())

	called := false
	err := mgr.Do(context.Background(), func(ctx context.Context, sess *session.Session) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin session")
	assert.False(t, called)
}
