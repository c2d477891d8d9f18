package handler

import (
	"strings"

	"tenancy/internal/tenant/models"
	"tenancy/internal/tenant/service"
	id "tenancy/pkg/domain"
	dErrors "tenancy/pkg/domain-errors"
	"tenancy/pkg/requestcontext"
)

// InviteMemberRequest is the JSON body of POST /tenants/{tenant}/members/invitations.
type InviteMemberRequest struct {
	UserID string `json:"user_id" validate:"max=128"`
	Email  string `json:"email" validate:"required,max=254,email"`
	Role   string `json:"role" validate:"required"`
}

func (r *InviteMemberRequest) Normalize() {
	if r == nil {
		return
	}
	r.UserID = strings.TrimSpace(r.UserID)
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.TrimSpace(r.Role)
}

// ToCommand builds the service command for tenant, acting as the authenticated principal.
func (r *InviteMemberRequest) ToCommand(tenant string, acting requestcontext.Principal) (*service.InviteMemberCommand, error) {
	role, ok := models.ParseRole(r.Role)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role must be one of OWNER, ADMIN, DEVELOPER, MEMBER")
	}
	return &service.InviteMemberCommand{
		TenantID: tenant,
		Invitee: service.Invitee{
			UserID: id.UserID(r.UserID),
			Email:  r.Email,
			Role:   role,
		},
		ActingUser: service.ActingUser{
			ID:        acting.UserID,
			FirstName: acting.FirstName,
			LastName:  acting.LastName,
		},
	}, nil
}
