package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/autoservice/internal/config"
	"github.com/Additional-Code/autoservice/internal/messaging"
	ordersvc "github.com/Additional-Code/autoservice/internal/service/order"
	"github.com/Additional-Code/autoservice/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/autoservice/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewEventHandler records every order change event in the audit log.
func NewEventHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		if event.Type == "" {
			event.Type = msg.Headers[messaging.HeaderEventType]
		}
		span.SetAttributes(attribute.String("order.event", event.Type), attribute.Int64("order.id", event.ID))

		fields := []zap.Field{
			zap.String("type", event.Type),
			zap.Int64("id", event.ID),
			zap.Time("occurred_at", event.OccurredAt),
		}
		switch event.Type {
		case ordersvc.EventCreated, ordersvc.EventUpdated:
			fields = append(fields,
				zap.String("customer_name", event.CustomerName),
				zap.String("car_info", event.CarInfo),
			)
		case ordersvc.EventDeleted:
		default:
			logger.Warn("unknown order event type", fields...)
			return nil
		}
		logger.Info("order event processed", fields...)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
