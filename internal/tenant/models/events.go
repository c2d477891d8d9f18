package models

import "time"

// EventTypeMemberInvited names TenantMemberInvited on the wire.
const EventTypeMemberInvited = "tenant.member.invited"

// TenantMemberInvited is emitted after a pending member has been persisted.
type TenantMemberInvited struct {
	TenantName string        `json:"tenant"`
	Member     InvitedMember `json:"member"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func (TenantMemberInvited) EventType() string { return EventTypeMemberInvited }
