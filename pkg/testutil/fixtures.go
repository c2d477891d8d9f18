package testutil

import (
	"time"

	"github.com/google/uuid"

	"tenancy/internal/tenant/models"
	id "tenancy/pkg/domain"
)

// FixedTime is the instant fixtures are stamped with.
var FixedTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// TestIDs provides convenient pre-generated IDs for tests.
var TestIDs = struct {
	OwnerID     id.UserID
	AdminID     id.UserID
	DeveloperID id.UserID
	InviteeID   id.UserID
	MemberID1   id.MemberID
	MemberID2   id.MemberID
}{
	OwnerID:     id.UserID("auth0|owner"),
	AdminID:     id.UserID("auth0|admin"),
	DeveloperID: id.UserID("auth0|developer"),
	InviteeID:   id.UserID("auth0|invitee"),
	MemberID1:   id.MemberID(uuid.MustParse("0195a0c0-0000-7000-8000-000000000001")),
	MemberID2:   id.MemberID(uuid.MustParse("0195a0c0-0000-7000-8000-000000000002")),
}

// TenantBuilder provides a fluent interface for building test tenants.
type TenantBuilder struct {
	tenant *models.Tenant
}

// NewTenantBuilder creates a tenant named "acme" with no members.
func NewTenantBuilder() *TenantBuilder {
	return &TenantBuilder{
		tenant: &models.Tenant{
			NormalizedName: "acme",
			Name:           "Acme",
			CreatedAt:      FixedTime,
			UpdatedAt:      FixedTime,
		},
	}
}

func (b *TenantBuilder) WithName(name string) *TenantBuilder {
	b.tenant.Name = name
	b.tenant.NormalizedName = models.NormalizeName(name)
	return b
}

// WithMember appends an already built member.
func (b *TenantBuilder) WithMember(m *models.TenantMember) *TenantBuilder {
	b.tenant.Members = append(b.tenant.Members, m)
	return b
}

// WithAcceptedMember appends an accepted member holding role.
func (b *TenantBuilder) WithAcceptedMember(userID id.UserID, role models.Role) *TenantBuilder {
	return b.WithMember(NewMemberBuilder().
		WithUserID(userID).
		WithEmail(string(userID) + "@example.com").
		WithRole(role).
		WithStatus(models.InvitationStatusAccepted).
		Build())
}

func (b *TenantBuilder) Build() *models.Tenant {
	return b.tenant
}

// MemberBuilder provides a fluent interface for building test members.
type MemberBuilder struct {
	member *models.TenantMember
}

// NewMemberBuilder creates a pending MEMBER with a fresh id.
func NewMemberBuilder() *MemberBuilder {
	return &MemberBuilder{
		member: &models.TenantMember{
			ID:        id.MemberID(uuid.New()),
			Email:     "member@example.com",
			Role:      models.RoleMember,
			Status:    models.InvitationStatusPending,
			InvitedBy: TestIDs.OwnerID,
			CreatedAt: FixedTime,
			UpdatedAt: FixedTime,
		},
	}
}

func (b *MemberBuilder) WithID(memberID id.MemberID) *MemberBuilder {
	b.member.ID = memberID
	return b
}

func (b *MemberBuilder) WithUserID(userID id.UserID) *MemberBuilder {
	b.member.UserID = userID
	return b
}

func (b *MemberBuilder) WithEmail(email string) *MemberBuilder {
	b.member.Email = models.NormalizeEmail(email)
	return b
}

func (b *MemberBuilder) WithRole(role models.Role) *MemberBuilder {
	b.member.Role = role
	return b
}

func (b *MemberBuilder) WithStatus(status models.InvitationStatus) *MemberBuilder {
	b.member.Status = status
	return b
}

func (b *MemberBuilder) Build() *models.TenantMember {
	return b.member
}
