package handler

import (
	"time"

	"tenancy/internal/tenant/models"
)

type InviterResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type InvitedMemberResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id,omitempty"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Status    string          `json:"status"`
	InvitedBy InviterResponse `json:"invited_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toInvitedMemberResponse(m *models.InvitedMember) *InvitedMemberResponse {
	return &InvitedMemberResponse{
		ID:     m.ID.String(),
		UserID: string(m.UserID),
		Email:  m.Email,
		Role:   m.Role.String(),
		Status: m.Status.String(),
		InvitedBy: InviterResponse{
			ID:        string(m.InvitedBy.ID),
			FirstName: m.InvitedBy.FirstName,
			LastName:  m.InvitedBy.LastName,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
