package seeder

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	repo "github.com/Additional-Code/autoservice/internal/repository/order"
	"github.com/Additional-Code/autoservice/internal/session"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder fills an empty store with sample work orders for local setups.
type Seeder struct {
	sessions *session.Manager
	repo     *repo.Repository
	logger   *zap.Logger
}

// New constructs a Seeder.
func New(sessions *session.Manager, repository *repo.Repository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{sessions: sessions, repo: repository, logger: logger}
}

func samples() []repo.CreateParams {
	oilChange := "oil change"
	return []repo.CreateParams{
		{CustomerName: "Ivanov", CarInfo: "Toyota Camry", Description: &oilChange},
		{CustomerName: "Petrov", CarInfo: "Honda Civic"},
	}
}

// Orders inserts the sample orders in one unit of work when the store is
// empty and reports how many rows were written.
func (s *Seeder) Orders(ctx context.Context) (int, error) {
	inserted := 0
	err := s.sessions.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		count, err := s.repo.Count(ctx, sess)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, params := range samples() {
			if _, err := s.repo.Create(ctx, sess, params); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted == 0 {
		s.logger.Info("orders already present; seeding skipped")
	} else {
		s.logger.Info("seeded orders", zap.Int("count", inserted))
	}
	return inserted, nil
}
