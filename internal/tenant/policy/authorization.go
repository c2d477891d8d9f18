// Package policy decides whether a user may invite members into a tenant.
package policy

import (
	"tenancy/internal/tenant/models"
	id "tenancy/pkg/domain"
)

// Reason explains a Decision in machine-readable form.
type Reason string

const (
	ReasonGranted               Reason = "granted"
	ReasonNotAMember            Reason = "not_a_member"
	ReasonInsufficientRole      Reason = "insufficient_role"
	ReasonMembershipNotAccepted Reason = "membership_not_accepted"
)

// Decision is the outcome of evaluating the invite policy.
type Decision struct {
	Granted bool
	Reason  Reason
}

// nonInvitingRoles cannot invite regardless of status. Every other role,
// including ones added later, may invite once accepted.
var nonInvitingRoles = map[models.Role]struct{}{
	models.RoleDeveloper: {},
	models.RoleMember:    {},
}

// Evaluate is pure: it reads the tenant roster and nothing else.
// A user with no membership record in the tenant is denied.
func Evaluate(tenant *models.Tenant, actingUserID id.UserID) Decision {
	if tenant == nil {
		return Decision{Reason: ReasonNotAMember}
	}
	member := tenant.FindMember(actingUserID)
	if member == nil {
		return Decision{Reason: ReasonNotAMember}
	}
	if _, denied := nonInvitingRoles[member.Role]; denied {
		return Decision{Reason: ReasonInsufficientRole}
	}
	if !member.IsAccepted() {
		return Decision{Reason: ReasonMembershipNotAccepted}
	}
	return Decision{Granted: true, Reason: ReasonGranted}
}
