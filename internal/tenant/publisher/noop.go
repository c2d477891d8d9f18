package publisher

import (
	"context"
	"log/slog"

	"tenancy/internal/tenant/models"
)

// Noop drops events. Used when no bus is configured.
type Noop struct {
	logger *slog.Logger
}

func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) Publish(ctx context.Context, event models.TenantMemberInvited) error {
	if n.logger != nil {
		n.logger.DebugContext(ctx, "event dropped, no publisher configured",
			"event_type", event.EventType(),
			"tenant", event.TenantName,
		)
	}
	return nil
}
