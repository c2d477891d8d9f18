package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	id "tenancy/pkg/domain"
	dErrors "tenancy/pkg/domain-errors"
)

const maxNameLength = 128

// Tenant is the aggregate owning its ordered member roster.
type Tenant struct {
	NormalizedName string          `json:"normalized_name"`
	Name           string          `json:"name"`
	Members        []*TenantMember `json:"members"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewTenant(name string, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	now = now.UTC()
	return &Tenant{
		NormalizedName: NormalizeName(name),
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// FindMember returns the member linked to userID, or nil.
func (t *Tenant) FindMember(userID id.UserID) *TenantMember {
	if userID.IsNil() {
		return nil
	}
	for _, m := range t.Members {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}

// HasMember reports whether a member already carries userID or email.
// Empty values never match.
func (t *Tenant) HasMember(userID id.UserID, email string) bool {
	email = NormalizeEmail(email)
	for _, m := range t.Members {
		if !userID.IsNil() && m.UserID == userID {
			return true
		}
		if email != "" && m.Email == email {
			return true
		}
	}
	return false
}

// NormalizeName produces the lookup key for a tenant name.
// A Caser is stateful, so one is built per call.
func NormalizeName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
