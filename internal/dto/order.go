package dto

import (
	"time"

	"github.com/Additional-Code/autoservice/internal/entity"
)

// OrderRequest is the payload accepted when creating or replacing an order.
type OrderRequest struct {
	CustomerName string  `json:"customer_name"`
	CarInfo      string  `json:"car_info"`
	Description  *string `json:"description"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID           int64     `json:"id"`
	CustomerName string    `json:"customer_name"`
	CarInfo      string    `json:"car_info"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromOrder converts a stored order into its transport shape.
func FromOrder(order *entity.Order) OrderResponse {
	return OrderResponse{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		CarInfo:      order.CarInfo,
		Description:  order.Description,
		CreatedAt:    order.CreatedAt,
	}
}

// FromOrders converts a list, preserving order and never returning nil.
func FromOrders(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, FromOrder(&orders[i]))
	}
	return out
}
