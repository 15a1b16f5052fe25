// Package events carries committed domain changes to dashboards and
// downstream consumers. Publishing happens after commit and is best effort.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type Type string

const (
	StockUpdate   Type = "stock_update"
	RequestUpdate Type = "request_update"
)

// Actions carried by stock_update and request_update events.
const (
	ActionProductCreated       = "product_created"
	ActionProductUpdated       = "product_updated"
	ActionProductDeleted       = "product_deleted"
	ActionSaleRecorded         = "sale_recorded"
	ActionStockRestocked       = "stock_restocked"
	ActionLowStock             = "low_stock"
	ActionRequestCreated       = "request_created"
	ActionRequestStatusChanged = "request_status_changed"
	ActionRequestDeleted       = "request_deleted"
)

// User identifies who caused the change.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

type Event struct {
	Type        Type                   `json:"type"`
	Action      string                 `json:"action"`
	AggregateID string                 `json:"aggregate_id"`
	Data        map[string]interface{} `json:"data"`
	User        *User                  `json:"user,omitempty"`
	Message     string                 `json:"message"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers an event to one destination.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers. Every publisher is tried;
// their failures are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Broadcaster accepts encoded events for local subscribers, e.g. the
// WebSocket hub.
type Broadcaster interface {
	Broadcast(msg []byte)
}

// Local publishes to an in-process broadcaster.
type Local struct {
	b Broadcaster
}

func NewLocal(b Broadcaster) *Local {
	return &Local{b: b}
}

func (l *Local) Publish(_ context.Context, e Event) error {
	msg, err := e.Marshal()
	if err != nil {
		return err
	}
	l.b.Broadcast(msg)
	return nil
}
