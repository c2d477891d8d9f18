//go:build integration

// Package containers runs the Postgres and Kafka instances integration tests
// talk to. Each instance starts on first use and lives for the rest of the
// test binary; Ryuk removes it when the process exits.
package containers

import (
	"sync"
	"testing"
)

type shared[T any] struct {
	mu sync.Mutex
	v  *T
}

func (s *shared[T]) get(t *testing.T, start func(*testing.T) *T) *T {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.v == nil {
		s.v = start(t)
	}
	return s.v
}

var (
	sharedPostgres shared[Postgres]
	sharedKafka    shared[Kafka]
)

// SharedPostgres returns the migrated Postgres instance for this test binary.
func SharedPostgres(t *testing.T) *Postgres {
	t.Helper()
	return sharedPostgres.get(t, startPostgres)
}

// SharedKafka returns the Kafka broker for this test binary.
func SharedKafka(t *testing.T) *Kafka {
	t.Helper()
	return sharedKafka.get(t, startKafka)
}
