package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order orden persistida por el sistema externo. TotalAmount es el valor guardado;
// el documento siempre recalcula su propio total.
type Order struct {
	ID              string
	UserID          string
	User            *User
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	Status          string // Pending, Processed, Shipped, Delivered, Cancelled
	ShippingAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem línea de la orden.
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
}
