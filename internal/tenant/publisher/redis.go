package publisher

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tenancy/internal/sentinel"
	"tenancy/internal/tenant/models"
)

// StreamAdder is the go-redis subset used for XADD.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStream appends events to a Redis stream trimmed to roughly maxLen entries.
type RedisStream struct {
	client StreamAdder
	stream string
	maxLen int64
}

func NewRedisStream(client StreamAdder, stream string, maxLen int64) *RedisStream {
	return &RedisStream{client: client, stream: stream, maxLen: maxLen}
}

func (r *RedisStream) Publish(ctx context.Context, event models.TenantMemberInvited) error {
	env, data, err := encode(event)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"event_id":   env.EventID.String(),
			"event_type": env.EventType,
			"tenant":     env.Tenant,
			"data":       string(data),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("%w: redis xadd: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
