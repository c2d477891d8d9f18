package models

import "strings"

// Role is the access level a member holds within a tenant.
type Role string

const (
	RoleOwner     Role = "OWNER"
	RoleAdmin     Role = "ADMIN"
	RoleDeveloper Role = "DEVELOPER"
	RoleMember    Role = "MEMBER"
)

// ParseRole accepts any casing and returns the canonical role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.IsValid()
}

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleDeveloper, RoleMember:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// InvitationStatus tracks where a membership is in its invitation lifecycle.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "PENDING"
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	InvitationStatusDeclined InvitationStatus = "DECLINED"
	InvitationStatusRevoked  InvitationStatus = "REVOKED"
)

func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationStatusPending, InvitationStatusAccepted, InvitationStatusDeclined, InvitationStatusRevoked:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s InvitationStatus) IsTerminal() bool {
	return s != InvitationStatusPending
}

func (s InvitationStatus) String() string { return string(s) }
