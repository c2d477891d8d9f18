package publisher

import (
	"context"
	"fmt"

	"tenancy/internal/sentinel"
	"tenancy/internal/tenant/models"
	"tenancy/pkg/platform/circuit"
)

// Publisher is the event sink Guarded protects.
type Publisher interface {
	Publish(ctx context.Context, event models.TenantMemberInvited) error
}

// Guarded fails fast while the bus behind next keeps failing, instead of
// holding every request for the broker's timeout.
type Guarded struct {
	next    Publisher
	breaker *circuit.Breaker
}

func NewGuarded(next Publisher, breaker *circuit.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) Publish(ctx context.Context, event models.TenantMemberInvited) error {
	if !g.breaker.Allow() {
		return fmt.Errorf("%w: %s circuit open", sentinel.ErrUnavailable, g.breaker.Name())
	}
	err := g.next.Publish(ctx, event)
	// Caller cancellation says nothing about the broker.
	if err != nil && ctx.Err() != nil {
		g.breaker.Release()
		return err
	}
	g.breaker.Record(err)
	return err
}

// Health reports an open circuit as a readiness failure.
func (g *Guarded) Health(context.Context) error {
	if state := g.breaker.State(); state == circuit.StateOpen {
		return fmt.Errorf("%s publisher circuit %s", g.breaker.Name(), state)
	}
	return nil
}
