package service

import (
	"strings"

	"tenancy/internal/tenant/models"
	id "tenancy/pkg/domain"
	dErrors "tenancy/pkg/domain-errors"
)

// InviteMemberCommand asks to add a pending member to a tenant.
type InviteMemberCommand struct {
	TenantID   string // normalized tenant name
	Invitee    Invitee
	ActingUser ActingUser
}

// Invitee describes who is being invited. UserID is optional.
type Invitee struct {
	UserID id.UserID
	Email  string
	Role   models.Role
}

// ActingUser is the authenticated caller issuing the invitation.
type ActingUser struct {
	ID        id.UserID
	FirstName string
	LastName  string
}

// Summary returns the denormalized view placed on events.
func (u ActingUser) Summary() models.InviterSummary {
	return models.InviterSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

// Validate checks the command shape. It performs no I/O.
func (c *InviteMemberCommand) Validate() error {
	if c == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "command is required")
	}
	if strings.TrimSpace(c.Invitee.Email) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email input field missing")
	}
	if strings.TrimSpace(c.TenantID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if c.ActingUser.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "acting user is required")
	}
	if !c.Invitee.Role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unsupported role")
	}
	return nil
}
