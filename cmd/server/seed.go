package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tenancy/internal/sentinel"
	"tenancy/internal/tenant/models"
	id "tenancy/pkg/domain"
)

const demoOwnerID id.UserID = "demo|owner"

// seedDemoTenant creates "acme" with an accepted owner so invitations can be
// tried locally with a token minted by cmd/tokengen. Re-seeding is a no-op.
func seedDemoTenant(ctx context.Context, store tenantStore) error {
	now := time.Now()
	tenant, err := models.NewTenant("Acme", now)
	if err != nil {
		return err
	}
	owner, err := models.NewPendingMember(id.MemberID(uuid.New()), demoOwnerID, "owner@acme.test", models.RoleOwner, demoOwnerID, now)
	if err != nil {
		return err
	}
	if err := owner.Accept(now); err != nil {
		return err
	}
	tenant.Members = []*models.TenantMember{owner}

	if err := store.CreateTenant(ctx, tenant); err != nil && !errors.Is(err, sentinel.ErrAlreadyUsed) {
		return err
	}
	return nil
}
