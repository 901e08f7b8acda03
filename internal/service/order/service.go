package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/autoservice/internal/cache"
	"github.com/Additional-Code/autoservice/internal/config"
	"github.com/Additional-Code/autoservice/internal/database"
	"github.com/Additional-Code/autoservice/internal/entity"
	"github.com/Additional-Code/autoservice/internal/messaging"
	repo "github.com/Additional-Code/autoservice/internal/repository/order"
	"github.com/Additional-Code/autoservice/internal/session"
	"github.com/Additional-Code/autoservice/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/autoservice/service/order")

// Module provides the order service to Fx.
var Module = fx.Provide(NewService)

// Input carries the caller-editable fields of an order.
type Input struct {
	CustomerName string
	CarInfo      string
	Description  *string
}

// Service runs each order operation as its own unit of work and keeps the
// cache and event stream in step with committed state.
type Service struct {
	sessions  *session.Manager
	repo      *repo.Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	now       func() time.Time
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Sessions   *session.Manager
	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:  p.Sessions,
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ParseID converts a caller-supplied identifier into a store key.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		opts := []errorbank.Option{errorbank.WithDetail("id", raw)}
		if err != nil {
			opts = append(opts, errorbank.WithCause(err))
		}
		return 0, errorbank.BadRequest("invalid order id", opts...)
	}
	return id, nil
}

// Create stores a new order and returns it with its assigned id.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create")
	defer span.End()

	var created *entity.Order
	err := s.sessions.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		var err error
		created, err = s.repo.Create(ctx, sess, repo.CreateParams(in))
		return err
	})
	if err != nil {
		return nil, s.storageError(span, "failed to create order", err)
	}

	s.storeInCache(ctx, created)
	s.publish(ctx, EventCreated, created)
	return created, nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	var orders []entity.Order
	err := s.sessions.Read(ctx, func(ctx context.Context, sess *session.Session) error {
		var err error
		orders, err = s.repo.List(ctx, sess)
		return err
	})
	if err != nil {
		return nil, s.storageError(span, "failed to list orders", err)
	}
	return orders, nil
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, ok := s.getFromCache(ctx, id); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return order, nil
	}

	var (
		order *entity.Order
		found bool
	)
	err := s.sessions.Read(ctx, func(ctx context.Context, sess *session.Session) error {
		var err error
		order, found, err = s.repo.GetByID(ctx, sess, id)
		return err
	})
	if err != nil {
		return nil, s.storageError(span, "failed to load order", err)
	}
	if !found {
		return nil, notFound(id)
	}

	s.storeInCache(ctx, order)
	return order, nil
}

// Update overwrites the editable fields of an existing order.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	var (
		updated *entity.Order
		found   bool
	)
	err := s.sessions.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		var err error
		updated, found, err = s.repo.Update(ctx, sess, id, repo.UpdateParams(in))
		return err
	})
	if err != nil {
		return nil, s.storageError(span, "failed to update order", err)
	}
	if !found {
		return nil, notFound(id)
	}

	s.storeInCache(ctx, updated)
	s.publish(ctx, EventUpdated, updated)
	return updated, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	var deleted bool
	err := s.sessions.Do(ctx, func(ctx context.Context, sess *session.Session) error {
		var err error
		deleted, err = s.repo.Delete(ctx, sess, id)
		return err
	})
	if err != nil {
		return s.storageError(span, "failed to delete order", err)
	}
	if !deleted {
		return notFound(id)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
			s.logger.Warn("orders cache invalidation failed", zap.Int64("id", id), zap.Error(err))
		}
	}
	s.publish(ctx, EventDeleted, &entity.Order{ID: id})
	return nil
}

func notFound(id int64) error {
	return errorbank.NotFound("order not found", errorbank.WithDetail("id", id))
}

func (s *Service) storageError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)

	if database.IsConstraintViolation(err) {
		return errorbank.Unprocessable("order rejected by store", errorbank.WithCause(err))
	}
	s.logger.Error(msg, zap.Error(err))
	return errorbank.Internal(msg, errorbank.WithCause(err))
}

func (s *Service) publish(ctx context.Context, eventType string, order *entity.Order) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := NewEvent(eventType, order, s.now())
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order event", zap.String("type", eventType), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Topic:   s.messaging.topic,
		Key:     []byte(fmt.Sprintf("order-%d", order.ID)),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: eventType},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish order event", zap.String("type", eventType), zap.Int64("id", order.ID), zap.Error(err))
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, bool) {
	if s.cache == nil {
		return nil, false
	}
	bytes, err := s.cache.Get(ctx, cacheKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
		}
		return nil, false
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		s.logger.Warn("orders cache entry corrupt", zap.Int64("id", id), zap.Error(err))
		return nil, false
	}
	return &order, true
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) {
	if s.cache == nil || order == nil {
		return
	}
	bytes, err := json.Marshal(order)
	if err == nil {
		err = s.cache.Set(ctx, cacheKey(order.ID), bytes, s.cacheTTL)
	}
	if err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}
}
