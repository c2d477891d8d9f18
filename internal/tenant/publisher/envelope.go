// Package publisher delivers tenant domain events to the configured bus.
package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tenancy/internal/tenant/models"
)

// Envelope is the wire format shared by every publisher.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	Tenant     string          `json:"tenant"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// encode wraps event in an Envelope with a fresh time-ordered event id.
func encode(event models.TenantMemberInvited) (Envelope, []byte, error) {
	eventID, err := uuid.NewV7()
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("generate event id: %w", err)
	}
	payload, err := json.Marshal(event.Member)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal member: %w", err)
	}
	env := Envelope{
		EventID:    eventID,
		EventType:  event.EventType(),
		Tenant:     event.TenantName,
		OccurredAt: event.OccurredAt.UTC(),
		Payload:    payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return env, data, nil
}

// Decode parses an envelope and its member payload. Consumers and tests use it.
func Decode(data []byte) (Envelope, models.InvitedMember, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, models.InvitedMember{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	var member models.InvitedMember
	if err := json.Unmarshal(env.Payload, &member); err != nil {
		return Envelope{}, models.InvitedMember{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return env, member, nil
}
