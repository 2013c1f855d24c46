package main

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/pkg/config"
	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/logger"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
)

type outboxRepository interface {
	FetchUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
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
	Repository outboxRepository
	Publisher  publisher
}

// Service drains unpublished outbox rows to the domain topic. Events that
// keep failing stay in the table with their attempt count; rows past the
// attempt budget are left for operators rather than retried forever.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	repo         outboxRepository
	publisher    publisher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Publisher == nil {
		return nil, errors.New("publisher is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		repo:         params.Repository,
		publisher:    params.Publisher,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := s.processBatch(ctx); err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (int, error) {
	rows, err := s.repo.FetchUnpublished(s.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range rows {
		if event.Attempts >= s.maxAttempts {
			evCtx := s.logg.WithFields(ctx, map[string]any{
				"event_id": event.ID,
				"attempts": event.Attempts,
			})
			s.logg.Warn(evCtx, "outbox event exhausted its attempt budget")
			continue
		}
		if err := s.publishEvent(ctx, event); err != nil {
			evCtx := s.logg.WithField(ctx, "event_id", event.ID)
			s.logg.Error(evCtx, "publish outbox event", err)
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				s.logg.Error(evCtx, "mark outbox event failed", markErr)
			}
			continue
		}
		if err := s.repo.MarkPublished(event.ID); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

func (s *Service) publishEvent(ctx context.Context, event models.OutboxEvent) error {
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := s.publisher.Publish(publishCtx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
		},
	})
	_, err := result.Get(publishCtx)
	return err
}

// gcpPublisher adapts the concrete Pub/Sub publisher to the local interface
// so tests can swap it out.
type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.inner.Publish(ctx, msg)
}
