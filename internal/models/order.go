package models

import "time"

// Order statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderItem represents a single line within an order.
type OrderItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name,omitempty"`
	Volume    string  `json:"volume,omitempty"`
	Quantity  int     `json:"quantity" validate:"gte=1"`
	ListPrice float64 `json:"listPrice"`
	Price     float64 `json:"price"` // final unit price at the time of order
}

// Order represents a customer order.
type Order struct {
	ID           string      `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CustomerName string      `json:"customerName" validate:"required,max=200"`
	Phone        string      `json:"phone" validate:"required,max=30"`
	Address      string      `json:"address,omitempty" validate:"omitempty,max=500"`
	Items        []OrderItem `json:"items" gorm:"serializer:json" validate:"required,min=1,dive"`
	TotalAmount  float64     `json:"totalAmount"`
	Status       string      `json:"status" gorm:"index;type:varchar(20)"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// ValidOrderStatus reports whether status is one of the known order statuses.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}
