package service

import (
	"context"
	"sync"
	"testing"

	"go-pos-inventory/internal/events"
	"go-pos-inventory/internal/metrics"
	"go-pos-inventory/internal/testutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type fixture struct {
	db  *gorm.DB
	env Env
	pub *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	pub := &recordingPublisher{}
	return &fixture{
		db:  db,
		pub: pub,
		env: Env{
			DB:      db,
			Events:  pub,
			Metrics: metrics.New(),
			Log:     zap.NewNop(),
		},
	}
}
