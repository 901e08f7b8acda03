package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is a car-service work order stored in the relational database.
//
// ID and CreatedAt are assigned once on insert and never change afterwards.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           int64     `bun:",pk,autoincrement" json:"id"`
	CustomerName string    `bun:"customer_name,notnull" json:"customer_name"`
	CarInfo      string    `bun:"car_info,notnull" json:"car_info"`
	Description  *string   `bun:"description" json:"description,omitempty"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}

// DescriptionText returns the description or an empty string when absent.
func (o *Order) DescriptionText() string {
	if o == nil || o.Description == nil {
		return ""
	}
	return *o.Description
}
