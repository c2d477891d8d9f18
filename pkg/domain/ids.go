// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "tenancy/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a UserID where a MemberID is expected.
type (
	// UserID identifies a platform user. Issued by the identity provider, so
	// it is an opaque string rather than a UUID.
	UserID string
	// MemberID identifies a membership record inside a tenant.
	MemberID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseUserID(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user ID cannot be empty")
	}
	return UserID(s), nil
}

func ParseMemberID(s string) (MemberID, error) {
	if s == "" {
		return MemberID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "member ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return MemberID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "invalid member ID format")
	}
	return MemberID(id), nil
}

// NewMemberID returns a time-ordered (UUIDv7) member identifier.
func NewMemberID() (MemberID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return MemberID(uuid.Nil), err
	}
	return MemberID(id), nil
}

func (id UserID) String() string   { return string(id) }
func (id MemberID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool   { return id == "" }
func (id MemberID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText keeps MemberID readable in JSON payloads.
func (id MemberID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *MemberID) UnmarshalText(data []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(data); err != nil {
		return err
	}
	*id = MemberID(u)
	return nil
}
