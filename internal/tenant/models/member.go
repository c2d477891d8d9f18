package models

import (
	"time"

	id "tenancy/pkg/domain"
	dErrors "tenancy/pkg/domain-errors"
)

// TenantMember is the persisted membership record embedded in a Tenant.
// InvitedBy holds the bare inviter id; see InvitedMember for the published shape.
type TenantMember struct {
	ID        id.MemberID      `json:"id"`
	UserID    id.UserID        `json:"user_id,omitempty"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Status    InvitationStatus `json:"status"`
	InvitedBy id.UserID        `json:"invited_by"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewPendingMember builds a freshly invited member. Both timestamps come
// from the same instant.
func NewPendingMember(
	memberID id.MemberID,
	userID id.UserID,
	email string,
	role Role,
	invitedBy id.UserID,
	now time.Time,
) (*TenantMember, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member email cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member role is not supported")
	}
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member ID cannot be nil")
	}
	now = now.UTC()
	return &TenantMember{
		ID:        memberID,
		UserID:    userID,
		Email:     email,
		Role:      role,
		Status:    InvitationStatusPending,
		InvitedBy: invitedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (m *TenantMember) IsAccepted() bool {
	return m.Status == InvitationStatusAccepted
}

// Accept transitions a pending invitation to accepted.
func (m *TenantMember) Accept(now time.Time) error {
	return m.transition(InvitationStatusAccepted, now)
}

// Decline transitions a pending invitation to declined.
func (m *TenantMember) Decline(now time.Time) error {
	return m.transition(InvitationStatusDeclined, now)
}

// Revoke transitions a pending invitation to revoked.
func (m *TenantMember) Revoke(now time.Time) error {
	return m.transition(InvitationStatusRevoked, now)
}

// Status never regresses: only PENDING may move, and only once.
func (m *TenantMember) transition(to InvitationStatus, now time.Time) error {
	if m.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invitation is no longer pending")
	}
	m.Status = to
	m.UpdatedAt = now.UTC()
	return nil
}

// InviterSummary is the denormalized view of the inviting user carried on events.
type InviterSummary struct {
	ID        id.UserID `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
}

// InvitedMember is the enriched member returned to callers and published on the bus.
type InvitedMember struct {
	ID        id.MemberID      `json:"id"`
	UserID    id.UserID        `json:"user_id,omitempty"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Status    InvitationStatus `json:"status"`
	InvitedBy InviterSummary   `json:"invited_by"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Enrich derives the published shape from a persisted member. The member is not modified.
func Enrich(m TenantMember, inviter InviterSummary) *InvitedMember {
	return &InvitedMember{
		ID:        m.ID,
		UserID:    m.UserID,
		Email:     m.Email,
		Role:      m.Role,
		Status:    m.Status,
		InvitedBy: inviter,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
