package service

import (
	"context"

	"tenancy/internal/tenant/models"
	id "tenancy/pkg/domain"
)

// TenantStore persists tenant aggregates. Implementations must be safe for
// concurrent use and must make AppendMember atomic with the member
// uniqueness invariant, returning sentinel.ErrAlreadyUsed on a clash.
type TenantStore interface {
	MemberExists(ctx context.Context, filter models.MemberFilter) (bool, error)
	FindByNormalizedName(ctx context.Context, name string, lazy bool) (*models.Tenant, error)
	AppendMember(ctx context.Context, cond models.AppendCondition, member *models.TenantMember) error
}

// EventPublisher hands domain events to the bus. Delivery is at-least-once;
// the service does not retry.
type EventPublisher interface {
	Publish(ctx context.Context, event models.TenantMemberInvited) error
}

// StoreTx provides a transactional boundary shared by the store and publisher.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// IDGenerator allocates member identifiers.
type IDGenerator interface {
	NewMemberID() (id.MemberID, error)
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() (id.MemberID, error)

func (f IDGeneratorFunc) NewMemberID() (id.MemberID, error) { return f() }
