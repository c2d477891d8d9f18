// Package requestcontext carries request-scoped values (request id, clock,
// authenticated principal) through context.Context.
package requestcontext

import (
	"context"
	"time"

	id "tenancy/pkg/domain"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	timeKey
	principalKey
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    id.UserID
	FirstName string
	LastName  string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request id, or "" outside a request.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithTime pins the request's notion of "now".
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey, t)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
