// Package worker relays committed outbox entries to Kafka.
package worker

import (
	"context"
	"log/slog"
	"time"

	"tenancy/internal/platform/kafka/producer"
	"tenancy/pkg/platform/outbox"
	"tenancy/pkg/platform/outbox/metrics"
)

const (
	defaultTopic        = "tenancy.tenant.events"
	defaultBatchSize    = 100
	defaultPollInterval = 100 * time.Millisecond
	drainTimeout        = 10 * time.Second
	// batchTxTimeout bounds one transactional poll, produces included.
	batchTxTimeout = 30 * time.Second
)

// TxRunner is satisfied by *tx.PostgresRunner.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Producer is satisfied by *producer.Producer.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Worker polls the outbox and relays pending entries in creation order.
// Delivery is at-least-once: an entry that was produced but could not be
// marked is produced again on a later poll. Once an entry fails, later
// entries of the same aggregate wait for the next poll so a tenant's events
// never overtake each other.
type Worker struct {
	store    outbox.Store
	producer Producer
	cfg      settings
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

type settings struct {
	topic        string
	batchSize    int
	pollInterval time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	tx           TxRunner
}

type Option func(*settings)

func WithTopic(topic string) Option {
	return func(s *settings) { s.topic = topic }
}

// WithBatchSize caps how many entries one poll fetches.
func WithBatchSize(size int) Option {
	return func(s *settings) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithTx runs each poll (fetch, produce, mark) in one transaction so the
// rows a Postgres store locks stay invisible to other relays until they are
// marked. Without it, relays running side by side may deliver an entry twice.
func WithTx(r TxRunner) Option {
	return func(s *settings) { s.tx = r }
}

func New(store outbox.Store, prod Producer, opts ...Option) *Worker {
	cfg := settings{
		topic:        defaultTopic,
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		store:    store,
		producer: prod,
		cfg:      cfg,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called.
func (w *Worker) Start() {
	go w.loop()
}

func (w *Worker) loop() {
	defer close(w.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-w.stop
		cancel()
	}()

	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// Stop ends polling, lets the worker relay what is still pending, and waits
// for it or for ctx, whichever comes first.
func (w *Worker) Stop(ctx context.Context) error {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// poll relays one batch and reports how many entries were marked processed.
func (w *Worker) poll(ctx context.Context) int {
	if w.cfg.tx == nil {
		return w.relayBatch(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, batchTxTimeout)
	defer cancel()

	var relayed int
	err := w.cfg.tx.RunInTx(ctx, func(txCtx context.Context) error {
		relayed = w.relayBatch(txCtx)
		return nil
	})
	if err != nil {
		// Marks were rolled back; the entries go out again on a later poll.
		w.logError(ctx, "commit outbox batch", "error", err)
		return 0
	}
	return relayed
}

func (w *Worker) relayBatch(ctx context.Context) int {
	start := time.Now()
	m := w.cfg.metrics

	entries, err := w.store.FetchUnprocessed(ctx, w.cfg.batchSize)
	if err != nil {
		w.logError(ctx, "fetch outbox entries", "error", err)
		if m != nil {
			m.IncPublishFailures()
		}
		return 0
	}
	if len(entries) == 0 {
		return 0
	}
	if m != nil {
		m.ObserveBatchSize(len(entries))
		defer func() { m.ObservePollDuration(time.Since(start).Seconds()) }()
	}

	blocked := make(map[string]bool)
	relayed := 0
	for _, entry := range entries {
		key := entry.AggregateType + "/" + entry.AggregateID
		if blocked[key] {
			continue
		}
		if err := w.relay(ctx, entry); err != nil {
			blocked[key] = true
			w.logError(ctx, "relay outbox entry",
				"id", entry.ID,
				"aggregate_id", entry.AggregateID,
				"event_type", entry.EventType,
				"error", err,
			)
			if m != nil {
				m.IncPublishFailures()
			}
			continue
		}
		relayed++
		if m != nil {
			m.IncPublished()
		}
	}
	return relayed
}

func (w *Worker) relay(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()
	if err := w.producer.Produce(ctx, w.message(entry)); err != nil {
		return err
	}
	if m := w.cfg.metrics; m != nil {
		m.ObservePublishDuration(time.Since(start).Seconds())
	}
	return w.store.MarkProcessed(ctx, entry.ID, w.now())
}

// message keys the record by aggregate id so one tenant's events land on
// one partition.
func (w *Worker) message(entry *outbox.Entry) *producer.Message {
	return &producer.Message{
		Topic: w.cfg.topic,
		Key:   []byte(entry.AggregateID),
		Value: entry.Payload,
		Headers: map[string]string{
			"event_id":       entry.ID.String(),
			"event_type":     entry.EventType,
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID,
		},
	}
}

// drain keeps relaying after Stop until a batch makes no progress or the
// drain deadline passes.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if w.cfg.logger != nil {
		w.cfg.logger.InfoContext(ctx, "draining outbox worker")
	}
	for ctx.Err() == nil && w.poll(ctx) > 0 {
	}
}

func (w *Worker) logError(ctx context.Context, msg string, args ...any) {
	if w.cfg.logger != nil {
		w.cfg.logger.ErrorContext(ctx, msg, args...)
	}
}
