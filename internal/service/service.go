package service

import (
	"context"
	"time"

	"go-pos-inventory/internal/events"
	"go-pos-inventory/internal/metrics"
	"go-pos-inventory/internal/model"
	"go-pos-inventory/pkg/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Env bundles the collaborators every service shares.
type Env struct {
	DB          *gorm.DB
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Log         *zap.Logger
	LockTimeout time.Duration
}

func (e Env) withDefaults() Env {
	if e.Events == nil {
		e.Events = events.Nop{}
	}
	if e.Metrics == nil {
		e.Metrics = metrics.New()
	}
	if e.Log == nil {
		e.Log = zap.NewNop()
	}
	return e
}

// runInTx runs fn in a single transaction with row-lock waits bounded by
// LockTimeout. Any error returned by fn rolls everything back.
func (e Env) runInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.SetLockTimeout(tx, e.LockTimeout); err != nil {
			return err
		}
		return fn(tx)
	})
}

// publish delivers a committed change. Delivery failures are logged and
// counted but never reach the caller: the change is already durable.
func (e Env) publish(ctx context.Context, ev events.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	err := e.Events.Publish(context.WithoutCancel(ctx), ev)
	e.Metrics.RecordEvent(string(ev.Type), err == nil)
	if err != nil {
		e.Log.Warn("event delivery failed",
			zap.String("type", string(ev.Type)),
			zap.String("action", ev.Action),
			zap.String("aggregate_id", ev.AggregateID),
			zap.Error(err),
		)
	}
}

func eventUser(actor model.Actor) *events.User {
	name := actor.Name
	if name == "" {
		name = actor.Username
	}
	return &events.User{ID: actor.Audit(), Name: name, Role: actor.Role}
}

func displayName(actor model.Actor) string {
	if actor.Name != "" {
		return actor.Name
	}
	if actor.Username != "" {
		return actor.Username
	}
	return "system"
}

// productData is the product snapshot carried by stock_update events.
func productData(p *model.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":            p.ID,
		"name":          p.Name,
		"stock":         p.StockQuantity,
		"threshold":     p.ThresholdValue,
		"selling_price": p.SellingPrice,
		"availability":  p.Availability(),
	}
}
