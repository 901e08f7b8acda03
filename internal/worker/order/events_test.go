package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/autoservice/internal/config"
	"github.com/Additional-Code/autoservice/internal/entity"
	"github.com/Additional-Code/autoservice/internal/messaging"
	ordersvc "github.com/Additional-Code/autoservice/internal/service/order"
)

func TestEventHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "orders.events"}}}

	reg := NewEventHandler(zap.New(core), cfg)
	assert.Equal(t, "orders.events", reg.Topic)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(ordersvc.NewEvent(ordersvc.EventCreated, &entity.Order{
		ID:           1,
		CustomerName: "Ivanov",
		CarInfo:      "Toyota Camry",
	}, at))
	require.NoError(t, err)

	require.NoError(t, reg.Handler(context.Background(), messaging.Message{Topic: "orders.events", Value: payload}))

	entries := logs.FilterMessage("order event processed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, ordersvc.EventCreated, fields["type"])
	assert.Equal(t, int64(1), fields["id"])
	assert.Equal(t, "Ivanov", fields["customer_name"])
}

func TestEventHandlerFallsBackToHeader(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := NewEventHandler(zap.New(core), config.Config{})

	err := reg.Handler(context.Background(), messaging.Message{
		Value:   []byte(`{"id":2}`),
		Headers: map[string]string{messaging.HeaderEventType: ordersvc.EventDeleted},
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("order event processed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, ordersvc.EventDeleted, entries[0].ContextMap()["type"])
}

func TestEventHandlerRejectsGarbage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := NewEventHandler(zap.New(core), config.Config{})

	err := reg.Handler(context.Background(), messaging.Message{Value: []byte("not json")})
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("failed to decode order event").Len())

	require.NoError(t, reg.Handler(context.Background(), messaging.Message{Value: []byte(`{"type":"order.archived","id":3}`)}))
	assert.Equal(t, 1, logs.FilterMessage("unknown order event type").Len())
}
