package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "tenancy/pkg/domain"
	dErrors "tenancy/pkg/domain-errors"
)

// MemberModelSuite tests TenantMember construction and status transitions.
type MemberModelSuite struct {
	suite.Suite
	now time.Time
}

func TestMemberModelSuite(t *testing.T) {
	suite.Run(t, new(MemberModelSuite))
}

func (s *MemberModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *MemberModelSuite) newPending() *TenantMember {
	m, err := NewPendingMember(id.MemberID(uuid.New()), "", "New@X.com ", RoleMember, "u1", s.now)
	s.Require().NoError(err)
	return m
}

func (s *MemberModelSuite) TestNewPendingMember() {
	s.Run("creates pending member with equal timestamps", func() {
		m := s.newPending()
		s.Equal(InvitationStatusPending, m.Status)
		s.Equal("new@x.com", m.Email)
		s.Equal(id.UserID("u1"), m.InvitedBy)
		s.Equal(m.CreatedAt, m.UpdatedAt)
	})

	s.Run("rejects empty email", func() {
		_, err := NewPendingMember(id.MemberID(uuid.New()), "", "  ", RoleMember, "u1", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects unknown role", func() {
		_, err := NewPendingMember(id.MemberID(uuid.New()), "", "a@b.c", Role("GOD"), "u1", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects nil id", func() {
		_, err := NewPendingMember(id.MemberID(uuid.Nil), "", "a@b.c", RoleMember, "u1", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// TestTransitions verifies status only moves out of PENDING, once.
func (s *MemberModelSuite) TestTransitions() {
	later := s.now.Add(time.Hour)
	moves := map[string]func(*TenantMember, time.Time) error{
		"accept":  (*TenantMember).Accept,
		"decline": (*TenantMember).Decline,
		"revoke":  (*TenantMember).Revoke,
	}
	want := map[string]InvitationStatus{
		"accept":  InvitationStatusAccepted,
		"decline": InvitationStatusDeclined,
		"revoke":  InvitationStatusRevoked,
	}

	for name, move := range moves {
		s.Run(name+" from pending succeeds", func() {
			m := s.newPending()
			s.Require().NoError(move(m, later))
			s.Equal(want[name], m.Status)
			s.Equal(later, m.UpdatedAt)
		})

		s.Run(name+" from terminal state fails", func() {
			m := s.newPending()
			s.Require().NoError(m.Accept(later))
			err := move(m, later)
			s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			s.Equal(InvitationStatusAccepted, m.Status)
		})
	}
}

// TestEnrich verifies the published shape is derived without touching the stored record.
func (s *MemberModelSuite) TestEnrich() {
	m := s.newPending()
	inviter := InviterSummary{ID: "u1", FirstName: "Ada", LastName: "Lovelace"}

	enriched := Enrich(*m, inviter)

	s.Equal(inviter, enriched.InvitedBy)
	s.Equal(id.UserID("u1"), m.InvitedBy)
	s.Equal(m.ID, enriched.ID)
	s.Equal(m.CreatedAt, enriched.CreatedAt)

	raw, err := json.Marshal(enriched)
	s.Require().NoError(err)
	s.Contains(string(raw), `"invited_by":{"id":"u1","firstname":"Ada","lastname":"Lovelace"}`)
	s.Contains(string(raw), `"created_at":"2026-03-01T12:00:00Z"`)
}

// TenantModelSuite tests the Tenant aggregate helpers.
type TenantModelSuite struct {
	suite.Suite
}

func TestTenantModelSuite(t *testing.T) {
	suite.Run(t, new(TenantModelSuite))
}

func (s *TenantModelSuite) TestNewTenant() {
	s.Run("normalizes name", func() {
		t, err := NewTenant("  ACME Corp ", time.Now())
		s.Require().NoError(err)
		s.Equal("ACME Corp", t.Name)
		s.Equal("acme corp", t.NormalizedName)
	})

	s.Run("rejects empty name", func() {
		_, err := NewTenant(" ", time.Now())
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects long name", func() {
		_, err := NewTenant(string(make([]byte, 129)), time.Now())
		s.Error(err)
	})
}

func (s *TenantModelSuite) TestNormalizeName() {
	s.Equal("acme", NormalizeName("Acme"))
	s.Equal("acme", NormalizeName("  acme\t"))
	s.Equal(NormalizeName("ÉCOLE"), NormalizeName("école"))
}

func (s *TenantModelSuite) TestMembership() {
	tenant := &Tenant{
		NormalizedName: "acme",
		Members: []*TenantMember{
			{UserID: "u1", Email: "owner@acme.io", Role: RoleOwner, Status: InvitationStatusAccepted},
			{Email: "pending@acme.io", Role: RoleMember, Status: InvitationStatusPending},
		},
	}

	s.Run("FindMember matches by user id", func() {
		s.Same(tenant.Members[0], tenant.FindMember("u1"))
		s.Nil(tenant.FindMember("u2"))
		s.Nil(tenant.FindMember(""))
	})

	s.Run("HasMember matches user id or email", func() {
		s.True(tenant.HasMember("u1", "other@acme.io"))
		s.True(tenant.HasMember("", "PENDING@acme.io"))
		s.False(tenant.HasMember("u9", "new@acme.io"))
	})

	s.Run("empty predicates never match members without user ids", func() {
		s.False(tenant.HasMember("", ""))
	})
}
