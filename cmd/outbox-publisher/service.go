package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/db/models"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/orchidcraft/orchid-backend/pkg/metrics"
	"github.com/orchidcraft/orchid-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
	maxIdleBackoff     = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

// outcome is what happened to a single outbox row in a drain pass.
type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDead
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pubSubClient
	Repository outboxRepository
	Registry   registryResolver
	Metrics    *metrics.OutboxMetrics
	// PublisherFor overrides topic lookup; tests use it to avoid Pub/Sub.
	PublisherFor func(topic string) publisher
}

// Service relays committed outbox rows to Pub/Sub. Rows are locked with
// SKIP LOCKED inside one transaction per batch so replicas never double-send.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	pubsub       pubSubClient
	repo         outboxRepository
	registry     registryResolver
	metrics      *metrics.OutboxMetrics
	publisherFor func(topic string) publisher
	batchSize    int
	maxAttempts  int
	poll         time.Duration
	rnd          *rand.Rand
}

func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Config == nil:
		return nil, errors.New("config is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	cfg := p.Config.Outbox
	s := &Service{
		logg:         p.Logger,
		db:           p.DB,
		pubsub:       p.PubSub,
		repo:         p.Repository,
		registry:     p.Registry,
		metrics:      p.Metrics,
		publisherFor: p.PublisherFor,
		batchSize:    positiveOr(cfg.BatchSize, defaultBatchSize),
		maxAttempts:  positiveOr(cfg.MaxAttempts, defaultMaxAttempts),
		poll:         defaultPoll,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if cfg.PollIntervalMS > 0 {
		s.poll = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	if s.publisherFor == nil {
		s.publisherFor = func(topic string) publisher {
			if pub := p.PubSub.Publisher(topic); pub != nil {
				return gcpPublisher{pub}
			}
			return nil
		}
	}
	return s, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run drains until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "outbox.database_unready", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := s.pubsub.Ping(ctx); err != nil {
		s.logg.Error(ctx, "outbox.pubsub_unready", err)
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	wait := s.poll
	for {
		res, err := s.drain(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox.drain_failed", err)
		}
		var again bool
		wait, again = s.nextWait(res, err, wait)
		if again {
			continue
		}
		if err := s.sleep(ctx, wait+s.jitter()); err != nil {
			s.logg.Info(ctx, "outbox.stopped")
			return err
		}
	}
}

// batch counts what one drain pass fetched and how many rows went out.
type batch struct {
	fetched   int
	published int
}

// nextWait picks the pause before the next pass. A full batch that made
// progress is followed immediately. Errors and batches where nothing was
// published double the previous wait up to maxIdleBackoff, so an outage
// does not burn every row's attempts in a tight loop.
func (s *Service) nextWait(res batch, err error, prev time.Duration) (time.Duration, bool) {
	switch {
	case err != nil, res.fetched > 0 && res.published == 0:
		return min(max(prev, s.poll)*2, maxIdleBackoff), false
	case res.fetched >= s.batchSize:
		return s.poll, true
	default:
		return s.poll, false
	}
}

func (s *Service) drain(ctx context.Context) (batch, error) {
	var res batch
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		res.fetched = len(events)
		for _, event := range events {
			out, err := s.relay(ctx, tx, event)
			if err != nil {
				return err
			}
			if out == outcomePublished {
				res.published++
			}
		}
		return nil
	})
	return res, err
}

// relay publishes one row and records the outcome. Only bookkeeping errors
// are returned; publish failures are written back onto the row.
func (s *Service) relay(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	eventType := string(event.EventType)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    eventType,
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	})

	pubErr := s.publish(ctx, event)
	out := classify(pubErr, event.AttemptCount+1, s.maxAttempts)
	switch out {
	case outcomePublished:
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return out, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.metrics.IncPublished(eventType)
		s.logg.Debug(logCtx, "outbox.published")
	case outcomeRetry:
		s.metrics.IncFailed(eventType)
		s.logg.Warn(s.logg.WithField(logCtx, "error", pubErr.Error()), "outbox.publish_retry")
		if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
			return out, fmt.Errorf("mark failed %s: %w", event.ID, err)
		}
	case outcomeDead:
		s.metrics.IncFailed(eventType)
		s.logg.Warn(s.logg.WithField(logCtx, "error", pubErr.Error()), "outbox.publish_dead")
		if err := s.repo.MarkTerminalTx(tx, event.ID, pubErr, s.maxAttempts); err != nil {
			return out, fmt.Errorf("mark terminal %s: %w", event.ID, err)
		}
	}
	return out, nil
}

func classify(err error, nextAttempt, maxAttempts int) outcome {
	if err == nil {
		return outcomePublished
	}
	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) || nextAttempt >= maxAttempts {
		return outcomeDead
	}
	return outcomeRetry
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent) error {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		var nonRetry registry.NonRetryableError
		if errors.As(err, &nonRetry) {
			return err
		}
		return registry.NewNonRetryableError(err)
	}
	topic := resolved.Descriptor.Topic
	pub := s.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := pub.Publish(pctx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned no result for topic %s", topic))
	}
	_, err = result.Get(pctx)
	return err
}

func (s *Service) jitter() time.Duration {
	return time.Duration(s.rnd.Int63n(int64(jitterWindow)))
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.pub.Publish(ctx, msg)
}
