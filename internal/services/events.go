package services

import (
	"time"

	"go.uber.org/zap"
)

// Routing keys of the domain events.
const (
	EventOrderCreated     = "order.created"
	EventOrderStatus      = "order.status"
	EventCatalogRefreshed = "catalog.refreshed"
)

// EventPublisher sends domain events to the message broker.
type EventPublisher interface {
	PublishEvent(routingKey string, payload any) error
}

// OrderEvent is the payload of order events.
type OrderEvent struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	Total     float64   `json:"total,omitempty"`
	Items     int       `json:"items,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogEvent is the payload of catalog.refreshed.
type CatalogEvent struct {
	Seq        uint64    `json:"seq"`
	Products   int       `json:"products"`
	Categories int       `json:"categories"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// publish sends an event when a publisher is configured. Failures are logged;
// the operation that raised the event has already succeeded.
func publish(p EventPublisher, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(routingKey, payload); err != nil {
		zap.L().Warn("publishing event failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
