package order

import (
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusFailed     OrderStatus = "FAILED"
	StatusCanceled   OrderStatus = "CANCELED"
)

// Settled reports whether the order has already absorbed a successful
// payment. Settled orders never transition again through this service.
func (s OrderStatus) Settled() bool {
	return s == StatusProcessing || s == StatusCompleted
}

type Order struct {
	ID          uint
	ExternalID  string
	Status      OrderStatus
	TotalAmount float64
	Currency    string
	// TransactionRef is the processor-assigned payment ID, set once when a
	// payment link is created. It is the sole correlation key for webhooks.
	TransactionRef *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []OrderItem
}

type OrderItem struct {
	ID        uint
	OrderID   uint
	ProductID uint
	Name      string
	Quantity  int
	Price     float64
}

// OrderNote is an append-only operator-visible line on an order.
type OrderNote struct {
	ID        uint
	OrderID   uint
	Note      string
	CreatedAt time.Time
}
