package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"tenancy/internal/sentinel"
	"tenancy/internal/tenant/models"
	"tenancy/internal/tenant/service/mocks"
	id "tenancy/pkg/domain"
	dErrors "tenancy/pkg/domain-errors"
)

// =============================================================================
// Validation (no I/O before the command is well formed)
// =============================================================================

func (s *InviteMemberSuite) TestValidation() {
	ctx := context.Background()
	tests := []struct {
		name   string
		mutate func(cmd *InviteMemberCommand)
		msg    string
	}{
		{"missing email", func(c *InviteMemberCommand) { c.Invitee.Email = "" }, "email input field missing"},
		{"blank email", func(c *InviteMemberCommand) { c.Invitee.Email = "   " }, "email input field missing"},
		{"missing tenant", func(c *InviteMemberCommand) { c.TenantID = " " }, "tenant id is required"},
		{"missing acting user", func(c *InviteMemberCommand) { c.ActingUser = ActingUser{} }, "acting user is required"},
		{"unknown role", func(c *InviteMemberCommand) { c.Invitee.Role = "SUPERUSER" }, "unsupported role"},
		{"empty role", func(c *InviteMemberCommand) { c.Invitee.Role = "" }, "unsupported role"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			cmd := validCommand()
			tt.mutate(cmd)

			member, err := s.handler.Execute(ctx, cmd)
			s.Nil(member)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "got %v", err)
			s.Contains(err.Error(), tt.msg)
		})
	}

	s.Run("nil command", func() {
		_, err := s.handler.Execute(ctx, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// Duplicate detection
// =============================================================================

func (s *InviteMemberSuite) TestDuplicateMember() {
	ctx := context.Background()

	s.Run("existing member is a conflict and nothing is written", func() {
		cmd := validCommand()
		cmd.TenantID = "  ACME "
		cmd.Invitee.Email = " New@X.com "
		cmd.Invitee.UserID = "auth0|bob"
		s.store.EXPECT().MemberExists(gomock.Any(), models.MemberFilter{
			TenantName: "acme",
			UserID:     "auth0|bob",
			Email:      "new@x.com",
		}).Return(true, nil)

		member, err := s.handler.Execute(ctx, cmd)
		s.Nil(member)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("member already exists", err.Error())
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Invitations.WithLabelValues("conflict")))
	})

	s.Run("store failure during the check", func() {
		s.store.EXPECT().MemberExists(gomock.Any(), gomock.Any()).Return(false, errors.New("connection refused"))

		_, err := s.handler.Execute(ctx, validCommand())
		s.True(dErrors.HasCode(err, dErrors.CodeStorageFailure))
		s.ErrorContains(err, "failed to check existing members")
	})
}

// =============================================================================
// Tenant lookup
// =============================================================================

func (s *InviteMemberSuite) TestTenantLookup() {
	ctx := context.Background()

	s.Run("unknown tenant", func() {
		s.store.EXPECT().MemberExists(gomock.Any(), gomock.Any()).Return(false, nil)
		s.store.EXPECT().FindByNormalizedName(gomock.Any(), "acme", false).
			Return(nil, fmt.Errorf("lookup: %w", sentinel.ErrNotFound))

		_, err := s.handler.Execute(ctx, validCommand())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure", func() {
		s.store.EXPECT().MemberExists(gomock.Any(), gomock.Any()).Return(false, nil)
		s.store.EXPECT().FindByNormalizedName(gomock.Any(), "acme", false).
			Return(nil, errors.New("timeout"))

		_, err := s.handler.Execute(ctx, validCommand())
		s.True(dErrors.HasCode(err, dErrors.CodeStorageFailure))
	})
}

// =============================================================================
// Authorization
// =============================================================================

func (s *InviteMemberSuite) TestAuthorization() {
	ctx := context.Background()
	tests := []struct {
		name   string
		tenant *models.Tenant
		reason string
	}{
		{"member role", acmeTenant(models.RoleMember, models.InvitationStatusAccepted), "insufficient_role"},
		{"developer role", acmeTenant(models.RoleDeveloper, models.InvitationStatusAccepted), "insufficient_role"},
		{"pending admin", acmeTenant(models.RoleAdmin, models.InvitationStatusPending), "membership_not_accepted"},
		{"declined owner", acmeTenant(models.RoleOwner, models.InvitationStatusDeclined), "membership_not_accepted"},
		{"not a member", acmeTenant(models.RoleOwner, models.InvitationStatusAccepted), "not_a_member"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			cmd := validCommand()
			if tt.reason == "not_a_member" {
				cmd.ActingUser.ID = "u2"
			}
			s.store.EXPECT().MemberExists(gomock.Any(), gomock.Any()).Return(false, nil)
			s.store.EXPECT().FindByNormalizedName(gomock.Any(), "acme", false).Return(tt.tenant, nil)

			member, err := s.handler.Execute(ctx, cmd)
			s.Nil(member)
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
			s.Contains(err.Error(), tt.reason)
		})
	}
}

// =============================================================================
// Success path
// =============================================================================

func (s *InviteMemberSuite) TestInviteSucceeds() {
	ctx := context.Background()
	cmd := validCommand()

	var appended *models.TenantMember
	var published models.TenantMemberInvited
	gomock.InOrder(
		s.store.EXPECT().MemberExists(gomock.Any(), gomock.Any()).Return(false, nil),
		s.store.EXPECT().FindByNormalizedName(gomock.Any(), "acme", false).
			Return(acmeTenant(models.RoleOwner, models.InvitationStatusAccepted), nil),
		s.ids.EXPECT().NewMemberID().Return(s.memberID, nil),
		s.store.EXPECT().AppendMember(gomock.Any(), models.AppendCondition{TenantName: "acme"}, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ models.AppendCondition, m *models.TenantMember) error {
				appended = m
				return nil
			}),
		s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e models.TenantMemberInvited) error {
				published = e
				return nil
			}),
	)

	member, err := s.handler.Execute(ctx, cmd)
	s.Require().NoError(err)

	s.Run("returned member is pending and enriched", func() {
		s.Equal(s.memberID, member.ID)
		s.Equal("new@x.com", member.Email)
		s.Equal(models.RoleMember, member.Role)
		s.Equal(models.InvitationStatusPending, member.Status)
		s.Equal(s.now.UTC(), member.CreatedAt)
		s.Equal(member.CreatedAt, member.UpdatedAt)
		s.Equal(models.InviterSummary{ID: "u1", FirstName: "Ada", LastName: "Lovelace"}, member.InvitedBy)
	})

	s.Run("persisted record keeps the bare inviter id", func() {
		s.Require().NotNil(appended)
		s.Equal(id.UserID("u1"), appended.InvitedBy)
		s.Equal(s.memberID, appended.ID)
		s.True(appended.UserID.IsNil())
	})

	s.Run("published event carries the enriched member", func() {
		s.Equal(models.EventTypeMemberInvited, published.EventType())
		s.Equal("acme", published.TenantName)
		s.Equal(*member, published.Member)
		s.Equal(member.CreatedAt, published.OccurredAt)
	})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Invitations.WithLabelValues("success")))
}

func (s *InviteMemberSuite) TestInviteStoresInviteeUserID() {
	cmd := validCommand()
	cmd.Invitee.UserID = "auth0|bob"
	cmd.Invitee.Role = models.RoleAdmin

	s.store.EXPECT().MemberExists(gomock.Any(), gomock.Any()).Return(false, nil)
	s.store.EXPECT().FindByNormalizedName(gomock.Any(), "acme", false).
		Return(acmeTenant(models.RoleAdmin, models.InvitationStatusAccepted), nil)
	s.ids.EXPECT().NewMemberID().Return(s.memberID, nil)
	s.store.EXPECT().AppendMember(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	member, err := s.handler.Execute(context.Background(), cmd)
	s.Require().NoError(err)
	s.Equal(id.UserID("auth0|bob"), member.UserID)
	s.Equal(models.RoleAdmin, member.Role)
}

// =============================================================================
// Failures after the policy check
// =============================================================================

func (s *InviteMemberSuite) expectAuthorized() {
	s.store.EXPECT().MemberExists(gomock.Any(), gomock.Any()).Return(false, nil)
	s.store.EXPECT().FindByNormalizedName(gomock.Any(), "acme", false).
		Return(acmeTenant(models.RoleOwner, models.InvitationStatusAccepted), nil)
}

func (s *InviteMemberSuite) TestAppendFailures() {
	ctx := context.Background()
	tests := []struct {
		name     string
		storeErr error
		code     dErrors.Code
	}{
		{"uniqueness rejected at append", fmt.Errorf("insert: %w", sentinel.ErrAlreadyUsed), dErrors.CodeConflict},
		{"tenant removed before append", sentinel.ErrNotFound, dErrors.CodeNotFound},
		{"storage error", errors.New("dial tcp 10.0.3.7:5432: password authentication failed"), dErrors.CodeStorageFailure},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.expectAuthorized()
			s.ids.EXPECT().NewMemberID().Return(s.memberID, nil)
			s.store.EXPECT().AppendMember(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.storeErr)

			member, err := s.handler.Execute(ctx, validCommand())
			s.Nil(member)
			s.True(dErrors.HasCode(err, tt.code), "got %v", err)
			s.NotContains(err.Error(), "10.0.3.7")
			if tt.code == dErrors.CodeStorageFailure {
				s.EqualError(err, "failed to append member")
				s.ErrorIs(err, tt.storeErr)
			}
		})
	}
}

func (s *InviteMemberSuite) TestIDGenerationFailure() {
	s.expectAuthorized()
	s.ids.EXPECT().NewMemberID().Return(id.MemberID{}, errors.New("entropy exhausted"))

	_, err := s.handler.Execute(context.Background(), validCommand())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *InviteMemberSuite) TestPublishFailureKeepsMember() {
	s.expectAuthorized()
	s.ids.EXPECT().NewMemberID().Return(s.memberID, nil)
	s.store.EXPECT().AppendMember(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	brokerErr := errors.New("kafka: broker kafka-0.internal:9092 SASL auth failed")
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(brokerErr)

	member, err := s.handler.Execute(context.Background(), validCommand())
	s.Nil(member)
	s.True(dErrors.HasCode(err, dErrors.CodePublishFailure))
	s.EqualError(err, "member persisted but invited event was not published")
	s.ErrorIs(err, brokerErr, "cause stays in the chain for logs")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.PublishFailures))
}

// =============================================================================
// Transactional mode
// =============================================================================

func (s *InviteMemberSuite) TestWithTx() {
	ctx := context.Background()

	s.Run("steps run inside the transaction", func() {
		txRunner := mocks.NewMockStoreTx(s.ctrl)
		handler := s.newHandler(WithTx(txRunner))
		txRunner.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
				return fn(context.WithValue(ctx, txMarker{}, true))
			})
		inTx := txContext{}
		s.store.EXPECT().MemberExists(inTx, gomock.Any()).Return(false, nil)
		s.store.EXPECT().FindByNormalizedName(inTx, "acme", false).
			Return(acmeTenant(models.RoleOwner, models.InvitationStatusAccepted), nil)
		s.ids.EXPECT().NewMemberID().Return(s.memberID, nil)
		s.store.EXPECT().AppendMember(inTx, gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Publish(inTx, gomock.Any()).Return(nil)

		member, err := handler.Execute(ctx, validCommand())
		s.Require().NoError(err)
		s.Equal(s.memberID, member.ID)
	})

	s.Run("invalid command never opens a transaction", func() {
		handler := s.newHandler(WithTx(mocks.NewMockStoreTx(s.ctrl)))
		cmd := validCommand()
		cmd.Invitee.Email = ""

		_, err := handler.Execute(ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("commit failure keeps its code", func() {
		txRunner := mocks.NewMockStoreTx(s.ctrl)
		handler := s.newHandler(WithTx(txRunner))
		txRunner.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeStorageFailure, "commit transaction"))

		_, err := handler.Execute(ctx, validCommand())
		s.True(dErrors.HasCode(err, dErrors.CodeStorageFailure))
	})
}

type txMarker struct{}

// txContext matches contexts handed out by the mocked transaction runner.
type txContext struct{}

func (txContext) Matches(x any) bool {
	ctx, ok := x.(context.Context)
	return ok && ctx.Value(txMarker{}) == true
}

func (txContext) String() string { return "is a transaction context" }
