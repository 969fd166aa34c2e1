// Package events consumes catalog change notifications from Kafka and flushes the
// filter cache when products change.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTopic is the topic product change events are published to.
const DefaultTopic = "product-updates"

// Type is the kind of catalog change.
type Type string

const (
	ProductCreated      Type = "product.created"
	ProductUpdated      Type = "product.updated"
	ProductDeleted      Type = "product.deleted"
	ProductStockChanged Type = "product.stock_changed"
)

// Event is a product change notification.
//
//	{"type":"product.updated","product_id":42,"occurred_at":"2025-01-01T00:00:00Z"}
type Event struct {
	Type       Type      `json:"type"`
	ProductID  int64     `json:"product_id"`
	OccurredAt time.Time `json:"occurred_at,omitempty"`
}

// Invalidates reports whether the event changes data visible through the filter.
func (e Event) Invalidates() bool {
	switch e.Type {
	case ProductCreated, ProductUpdated, ProductDeleted, ProductStockChanged:
		return true
	default:
		return false
	}
}

// ParseEvent decodes an event payload.
func ParseEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal product event: %w", err)
	}
	return e, nil
}
