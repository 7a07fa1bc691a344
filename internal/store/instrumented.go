package store

import (
	"context"
	"time"

	"github.com/kelleyneubauer/rest-between-sets/internal/observability"
)

// Instrumented decorates a Gateway with latency and error metrics.
type Instrumented struct {
	next   Gateway
	driver string
}

// NewInstrumented wraps next, labelling metrics with driver.
func NewInstrumented(next Gateway, driver string) *Instrumented {
	return &Instrumented{next: next, driver: driver}
}

func (g *Instrumented) observe(op string, start time.Time, err error) {
	kind := ""
	if err != nil {
		kind = KindOf(err).String()
	}
	observability.ObserveStoreOperation(g.driver, op, time.Since(start), kind)
	if err == nil && op != "get" && op != "list" {
		observability.RecordWrite(time.Now())
	}
}

// Create implements Gateway.
func (g *Instrumented) Create(ctx context.Context, c Collection, data []byte) (id int64, err error) {
	defer func(start time.Time) { g.observe("create", start, err) }(time.Now())
	return g.next.Create(ctx, c, data)
}

// Get implements Gateway.
func (g *Instrumented) Get(ctx context.Context, c Collection, id int64) (doc Document, err error) {
	defer func(start time.Time) { g.observe("get", start, err) }(time.Now())
	return g.next.Get(ctx, c, id)
}

// List implements Gateway.
func (g *Instrumented) List(ctx context.Context, c Collection, opts ListOptions) (page Page, err error) {
	defer func(start time.Time) { g.observe("list", start, err) }(time.Now())
	return g.next.List(ctx, c, opts)
}

// Update implements Gateway.
func (g *Instrumented) Update(ctx context.Context, c Collection, id int64, data []byte) (err error) {
	defer func(start time.Time) { g.observe("update", start, err) }(time.Now())
	return g.next.Update(ctx, c, id, data)
}

// Delete implements Gateway.
func (g *Instrumented) Delete(ctx context.Context, c Collection, id int64) (err error) {
	defer func(start time.Time) { g.observe("delete", start, err) }(time.Now())
	return g.next.Delete(ctx, c, id)
}

// Apply implements Gateway.
func (g *Instrumented) Apply(ctx context.Context, muts []Mutation) (err error) {
	defer func(start time.Time) { g.observe("apply", start, err) }(time.Now())
	return g.next.Apply(ctx, muts)
}

// Close implements Gateway.
func (g *Instrumented) Close() error {
	return g.next.Close()
}
