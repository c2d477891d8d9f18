package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tenancy/internal/tenant/models"
	"tenancy/internal/tenant/service"
	dErrors "tenancy/pkg/domain-errors"
	"tenancy/pkg/platform/httputil"
	"tenancy/pkg/requestcontext"
)

// Inviter executes invitations. Satisfied by *service.InviteMemberHandler.
type Inviter interface {
	Execute(ctx context.Context, cmd *service.InviteMemberCommand) (*models.InvitedMember, error)
}

type Handler struct {
	inviter Inviter
	logger  *slog.Logger
}

func New(inviter Inviter, logger *slog.Logger) *Handler {
	return &Handler{inviter: inviter, logger: logger}
}

// Register mounts tenant routes. The router must already run auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tenants/{tenant}/members/invitations", h.HandleInviteMember)
}

// HandleInviteMember invites a member on behalf of the authenticated caller.
func (h *Handler) HandleInviteMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal, err := httputil.RequirePrincipal(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndValidate[InviteMemberRequest](w, r, h.logger)
	if !ok {
		return
	}

	cmd, err := req.ToCommand(chi.URLParam(r, "tenant"), principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	member, err := h.inviter.Execute(ctx, cmd)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeStorageFailure) {
			h.logger.ErrorContext(ctx, "invite member failed", "error", err, "request_id", requestID)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toInvitedMemberResponse(member))
}
