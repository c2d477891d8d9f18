package models

import id "tenancy/pkg/domain"

// MemberFilter selects members where
// tenant == TenantName AND (user_id == UserID OR email == Email).
// An empty TenantName spans all tenants; empty UserID or Email predicates are skipped.
type MemberFilter struct {
	TenantName string
	UserID     id.UserID
	Email      string
}

// IsEmpty reports whether neither identity predicate is set.
func (f MemberFilter) IsEmpty() bool {
	return f.UserID.IsNil() && f.Email == ""
}

// AppendCondition scopes a member append to one tenant aggregate.
type AppendCondition struct {
	TenantName string
}
