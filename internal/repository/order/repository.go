package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/autoservice/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/autoservice/repository/order")

// Module provides the order repository to Fx.
var Module = fx.Provide(NewRepository)

// CreateParams carries the fields of a new order.
type CreateParams struct {
	CustomerName string
	CarInfo      string
	Description  *string
}

// UpdateParams carries the mutable fields of an existing order.
type UpdateParams struct {
	CustomerName string
	CarInfo      string
	Description  *string
}

// Repository implements the order CRUD operations.
//
// Every method runs on the bun.IDB it is handed (normally a *session.Session)
// and never commits; the caller owns the transaction.
type Repository struct {
	now func() time.Time
}

// NewRepository builds a Repository using the wall clock for created_at.
func NewRepository() *Repository {
	return &Repository{now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new order and returns it as stored, including its id.
func (r *Repository) Create(ctx context.Context, db bun.IDB, in CreateParams) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(
		attribute.String("order.customer_name", in.CustomerName),
	))
	defer span.End()

	order := &entity.Order{
		CustomerName: in.CustomerName,
		CarInfo:      in.CarInfo,
		Description:  in.Description,
		CreatedAt:    r.now(),
	}

	if _, err := db.NewInsert().Model(order).Exec(ctx); err != nil {
		return nil, spanError(span, "insert failed", err)
	}

	if err := refresh(ctx, db, order); err != nil {
		return nil, spanError(span, "refresh failed", err)
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	return order, nil
}

// List returns every order, newest id first. The slice is never nil.
func (r *Repository) List(ctx context.Context, db bun.IDB) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	orders := make([]entity.Order, 0)
	if err := db.NewSelect().Model(&orders).OrderExpr("id DESC").Scan(ctx); err != nil {
		return nil, spanError(span, "select failed", err)
	}
	span.SetAttributes(attribute.Int("order.count", len(orders)))

	return orders, nil
}

// GetByID looks an order up by primary key. A missing id is reported through
// the boolean, not as an error.
func (r *Repository) GetByID(ctx context.Context, db bun.IDB, id int64) (*entity.Order, bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	return getByID(ctx, db, span, id)
}

// Update overwrites the mutable fields of an order and returns the stored
// result. id and created_at are never written.
func (r *Repository) Update(ctx context.Context, db bun.IDB, id int64, in UpdateParams) (*entity.Order, bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, found, err := getByID(ctx, db, span, id)
	if err != nil || !found {
		return nil, found, err
	}

	order.CustomerName = in.CustomerName
	order.CarInfo = in.CarInfo
	order.Description = in.Description

	_, err = db.NewUpdate().
		Model(order).
		Column("customer_name", "car_info", "description").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, false, spanError(span, "update failed", err)
	}

	if err := refresh(ctx, db, order); err != nil {
		return nil, false, spanError(span, "refresh failed", err)
	}

	return order, true, nil
}

// Delete removes an order. It reports false when the id does not exist.
func (r *Repository) Delete(ctx context.Context, db bun.IDB, id int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, found, err := getByID(ctx, db, span, id)
	if err != nil || !found {
		return false, err
	}

	if _, err := db.NewDelete().Model(order).WherePK().Exec(ctx); err != nil {
		return false, spanError(span, "delete failed", err)
	}

	return true, nil
}

// Count returns the number of stored orders.
func (r *Repository) Count(ctx context.Context, db bun.IDB) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Count")
	defer span.End()

	count, err := db.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	if err != nil {
		return 0, spanError(span, "count failed", err)
	}
	return count, nil
}

func getByID(ctx context.Context, db bun.IDB, span trace.Span, id int64) (*entity.Order, bool, error) {
	order := new(entity.Order)
	err := db.NewSelect().Model(order).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("order.found", false))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, spanError(span, "select failed", err)
	}
	return order, true, nil
}

// refresh reloads the authoritative row state, including store defaults.
func refresh(ctx context.Context, db bun.IDB, order *entity.Order) error {
	return db.NewSelect().Model(order).WherePK().Scan(ctx)
}

func spanError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}
