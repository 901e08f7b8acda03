package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/autoservice/internal/entity"
	repo "github.com/Additional-Code/autoservice/internal/repository/order"
	"github.com/Additional-Code/autoservice/internal/session"
	"github.com/Additional-Code/autoservice/internal/testutil"
)

func TestSeederOrders(t *testing.T) {
	db := testutil.NewDB(t)
	sessions, err := session.NewManager(db, zap.NewNop())
	require.NoError(t, err)
	orders := repo.NewRepository()
	s := New(sessions, orders, nil)
	ctx := context.Background()

	inserted, err := s.Orders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// A second run leaves the store alone.
	inserted, err = s.Orders(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	var listed []entity.Order
	require.NoError(t, sessions.Read(ctx, func(ctx context.Context, sess *session.Session) error {
		listed, err = orders.List(ctx, sess)
		return err
	}))
	require.Len(t, listed, 2)
	assert.Equal(t, "Petrov", listed[0].CustomerName)
	assert.Nil(t, listed[0].Description)
	assert.Equal(t, "Ivanov", listed[1].CustomerName)
	assert.Equal(t, "oil change", listed[1].DescriptionText())
}

func TestSeederSkipsPopulatedStore(t *testing.T) {
	db := testutil.NewDB(t)
	sessions, err := session.NewManager(db, zap.NewNop())
	require.NoError(t, err)
	orders := repo.NewRepository()
	ctx := context.Background()

	require.NoError(t, sessions.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		_, err := orders.Create(ctx, sess, repo.CreateParams{CustomerName: "Sidorov", CarInfo: "Lada Vesta"})
		return err
	}))

	inserted, err := New(sessions, orders, zap.NewNop()).Orders(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	count, err := orders.Count(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
