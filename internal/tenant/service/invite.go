package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	tenantmetrics "tenancy/internal/tenant/metrics"
	"tenancy/internal/tenant/models"
	"tenancy/internal/tenant/policy"
	id "tenancy/pkg/domain"
	dErrors "tenancy/pkg/domain-errors"
	"tenancy/pkg/platform/privacy"
	"tenancy/pkg/requestcontext"
)

// InviteMemberHandler processes InviteMemberCommand.
//
// The duplicate pre-check and the append are separate store calls with no lock
// between them. Uniqueness is enforced again by TenantStore.AppendMember, so
// concurrent invitations of the same person end with one member and conflicts
// for the rest. Without WithTx a failed publish never undoes the append; with
// it, the append and the publish commit or roll back together.
type InviteMemberHandler struct {
	tenants   TenantStore
	publisher EventPublisher
	ids       IDGenerator
	logger    *slog.Logger
	metrics   *tenantmetrics.Metrics
	tracer    trace.Tracer
	clock     func() time.Time
	tx        StoreTx
}

func NewInviteMemberHandler(tenants TenantStore, publisher EventPublisher, opts ...Option) *InviteMemberHandler {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	ids := cfg.ids
	if ids == nil {
		ids = IDGeneratorFunc(id.NewMemberID)
	}
	tracer := cfg.tracer
	if tracer == nil {
		tracer = otel.Tracer("tenancy/tenant")
	}
	return &InviteMemberHandler{
		tenants:   tenants,
		publisher: publisher,
		ids:       ids,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		tracer:    tracer,
		clock:     cfg.clock,
		tx:        cfg.tx,
	}
}

// Execute invites a member and returns it with InvitedBy enriched to the
// acting user's summary. Failures carry a dErrors code: invalid_input,
// conflict, not_found, unauthorized, storage_failure or publish_failure.
func (h *InviteMemberHandler) Execute(ctx context.Context, cmd *InviteMemberCommand) (*models.InvitedMember, error) {
	start := time.Now()
	ctx, span := h.tracer.Start(ctx, "tenant.InviteMember")
	defer span.End()
	if cmd != nil {
		span.SetAttributes(
			attribute.String("tenant.name", cmd.TenantID),
			attribute.String("invitee.role", cmd.Invitee.Role.String()),
		)
	}

	member, err := h.invite(ctx, cmd)
	if err != nil {
		code := dErrors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		h.observe(string(code), start)
		h.logFailure(ctx, cmd, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, publicMessage(err))
	}

	h.observe("", start)
	if h.logger != nil {
		h.logger.InfoContext(ctx, "tenant member invited",
			"tenant", cmd.TenantID,
			"member_id", member.ID,
			"invitee", privacy.MaskEmail(member.Email),
			"role", member.Role,
			"invited_by", member.InvitedBy.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return member, nil
}

func (h *InviteMemberHandler) invite(ctx context.Context, cmd *InviteMemberCommand) (*models.InvitedMember, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if h.tx == nil {
		return h.persistAndPublish(ctx, cmd)
	}
	var invited *models.InvitedMember
	err := h.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		invited, err = h.persistAndPublish(txCtx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return invited, nil
}

func (h *InviteMemberHandler) persistAndPublish(ctx context.Context, cmd *InviteMemberCommand) (*models.InvitedMember, error) {
	tenantName := models.NormalizeName(cmd.TenantID)
	email := models.NormalizeEmail(cmd.Invitee.Email)

	exists, err := h.tenants.MemberExists(ctx, models.MemberFilter{
		TenantName: tenantName,
		UserID:     cmd.Invitee.UserID,
		Email:      email,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to check existing members")
	}
	if exists {
		return nil, dErrors.New(dErrors.CodeConflict, "member already exists")
	}

	tenant, err := h.tenants.FindByNormalizedName(ctx, tenantName, false)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	if decision := policy.Evaluate(tenant, cmd.ActingUser.ID); !decision.Granted {
		return nil, &dErrors.Error{
			Code:    dErrors.CodeUnauthorized,
			Message: "not authorized to invite members to this tenant: " + string(decision.Reason),
		}
	}

	memberID, err := h.ids.NewMemberID()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate member id")
	}
	member, err := models.NewPendingMember(memberID, cmd.Invitee.UserID, email, cmd.Invitee.Role, cmd.ActingUser.ID, h.now(ctx))
	if err != nil {
		return nil, err
	}

	if err := h.tenants.AppendMember(ctx, models.AppendCondition{TenantName: tenant.NormalizedName}, member); err != nil {
		return nil, wrapAppendErr(err)
	}

	invited := models.Enrich(*member, cmd.ActingUser.Summary())
	event := models.TenantMemberInvited{
		TenantName: tenant.NormalizedName,
		Member:     *invited,
		OccurredAt: member.CreatedAt,
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		if h.metrics != nil {
			h.metrics.IncrementPublishFailure()
		}
		return nil, dErrors.Wrap(err, dErrors.CodePublishFailure, "member persisted but invited event was not published")
	}

	return invited, nil
}

func (h *InviteMemberHandler) now(ctx context.Context) time.Time {
	if h.clock != nil {
		return h.clock()
	}
	return requestcontext.Now(ctx)
}

func (h *InviteMemberHandler) observe(code string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveInvite(code, start)
	}
}

func (h *InviteMemberHandler) logFailure(ctx context.Context, cmd *InviteMemberCommand, err error) {
	if h.logger == nil {
		return
	}
	attrs := []any{
		"error", err,
		"error_code", dErrors.CodeOf(err),
		"request_id", requestcontext.RequestID(ctx),
	}
	if cmd != nil {
		attrs = append(attrs, "tenant", cmd.TenantID, "acting_user_id", cmd.ActingUser.ID)
	}
	h.logger.ErrorContext(ctx, "invite tenant member failed", attrs...)
}
