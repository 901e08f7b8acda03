package order

import (
	"time"

	"github.com/Additional-Code/autoservice/internal/entity"
)

// Order event types.
const (
	EventCreated = "order.created"
	EventUpdated = "order.updated"
	EventDeleted = "order.deleted"
)

// Event is published after a unit of work touching an order commits.
type Event struct {
	Type         string    `json:"type"`
	ID           int64     `json:"id"`
	CustomerName string    `json:"customer_name,omitempty"`
	CarInfo      string    `json:"car_info,omitempty"`
	Description  *string   `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewEvent snapshots an order into an event.
func NewEvent(eventType string, order *entity.Order, at time.Time) Event {
	return Event{
		Type:         eventType,
		ID:           order.ID,
		CustomerName: order.CustomerName,
		CarInfo:      order.CarInfo,
		Description:  order.Description,
		CreatedAt:    order.CreatedAt,
		OccurredAt:   at,
	}
}
