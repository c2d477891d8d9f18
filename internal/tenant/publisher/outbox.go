package publisher

import (
	"context"
	"fmt"

	"tenancy/internal/tenant/models"
	"tenancy/pkg/platform/outbox"
)

const aggregateTenant = "tenant"

// Outbox records events in the outbox table instead of talking to a broker.
// With a Postgres outbox store and the handler's WithTx option, the entry
// commits together with the member row; the relay worker delivers it later.
type Outbox struct {
	store outbox.Store
}

func NewOutbox(store outbox.Store) *Outbox {
	return &Outbox{store: store}
}

func (o *Outbox) Publish(ctx context.Context, event models.TenantMemberInvited) error {
	env, data, err := encode(event)
	if err != nil {
		return err
	}
	entry := outbox.NewEntry(aggregateTenant, env.Tenant, env.EventType, data)
	entry.ID = env.EventID
	entry.CreatedAt = env.OccurredAt
	if err := o.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append outbox entry: %w", err)
	}
	return nil
}
