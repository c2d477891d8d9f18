//go:build integration

package containers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka is a single-node KRaft broker.
type Kafka struct {
	Brokers []string
}

func startKafka(t *testing.T) *Kafka {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("tenancy-test"),
	)
	if err != nil {
		t.Fatalf("start kafka: %v", err)
	}
	brokers, err := ctr.Brokers(ctx)
	if err != nil {
		_ = ctr.Terminate(context.Background())
		t.Fatalf("kafka brokers: %v", err)
	}
	return &Kafka{Brokers: brokers}
}

// SeedList joins the broker addresses the way producer.Config expects them.
func (k *Kafka) SeedList() string {
	return strings.Join(k.Brokers, ",")
}

// EnsureTopic creates topic with a replication factor of one. An existing
// topic is left as it is.
func (k *Kafka) EnsureTopic(ctx context.Context, topic string, partitions int32) error {
	cl, err := kgo.NewClient(kgo.SeedBrokers(k.Brokers...))
	if err != nil {
		return err
	}
	defer cl.Close()

	resp, err := kadm.NewClient(cl).CreateTopics(ctx, partitions, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Subscribe returns a client reading topic from the earliest offset. The
// client is closed when t finishes.
func (k *Kafka) Subscribe(t *testing.T, group, topic string) *kgo.Client {
	t.Helper()
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(k.Brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		t.Fatalf("kafka consumer: %v", err)
	}
	t.Cleanup(cl.Close)
	return cl
}

// Drain polls cl until n records have arrived or timeout passes, and returns
// what it saw in fetch order.
func Drain(ctx context.Context, cl *kgo.Client, n int, timeout time.Duration) []*kgo.Record {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out []*kgo.Record
	for len(out) < n && ctx.Err() == nil {
		fetches := cl.PollFetches(ctx)
		if fetches.IsClientClosed() {
			break
		}
		out = append(out, fetches.Records()...)
	}
	return out
}

// Await returns the first record match accepts, or nil after timeout.
func Await(ctx context.Context, cl *kgo.Client, timeout time.Duration, match func(*kgo.Record) bool) *kgo.Record {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for ctx.Err() == nil {
		fetches := cl.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		for _, r := range fetches.Records() {
			if match(r) {
				return r
			}
		}
	}
	return nil
}
