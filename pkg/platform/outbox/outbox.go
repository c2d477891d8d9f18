// Package outbox stores integration events in the same transaction as the
// state change that caused them. A worker later relays them to Kafka.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one event waiting for, or done with, relay.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // "tenant"
	AggregateID   string // normalized tenant name, used as the record key
	EventType     string // "tenant.member.invited"
	Payload       []byte // JSON event envelope
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry builds a pending entry. Ids are UUIDv7 so id order follows
// creation order within the process.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte) *Entry {
	entryID, err := uuid.NewV7()
	if err != nil {
		entryID = uuid.New()
	}
	return &Entry{
		ID:            entryID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

// Store persists entries. Append must join the caller's transaction when
// ctx carries one.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	// FetchUnprocessed returns at most limit pending entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)
	// MarkProcessed fails when id is unknown or already processed.
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	CountPending(ctx context.Context) (int64, error)
	// DeleteProcessedBefore purges relayed entries processed before the cutoff.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
