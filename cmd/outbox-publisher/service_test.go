package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/pkg/config"
	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	"github.com/nearcart/nearcart-backend/pkg/logger"
)

type fakeRepo struct {
	rows      []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.err}
}

func testEvent(attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderTransitioned,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"from":"placed","to":"accepted"}`),
		Attempts:      attempts,
	}
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test"}),
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	first := testEvent(0)
	second := testEvent(2)
	repo := &fakeRepo{rows: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	published, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if published != 2 {
		t.Fatalf("expected 2 published, got %d", published)
	}
	if len(repo.published) != 2 {
		t.Fatalf("expected 2 marked published, got %d", len(repo.published))
	}
	if len(pub.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(pub.messages))
	}
	if got := pub.messages[0].Attributes["event_type"]; got != string(enums.EventOrderTransitioned) {
		t.Fatalf("expected event_type attribute, got %q", got)
	}
}

func TestProcessBatchMarksFailedOnPublishError(t *testing.T) {
	event := testEvent(0)
	repo := &fakeRepo{rows: []models.OutboxEvent{event}}
	pub := &fakePublisher{err: errors.New("topic unavailable")}
	svc := newTestService(t, repo, pub)

	published, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if published != 0 {
		t.Fatalf("expected 0 published, got %d", published)
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("expected the event marked failed, got %v", repo.failed)
	}
}

func TestProcessBatchSkipsExhaustedEvents(t *testing.T) {
	event := testEvent(defaultMaxAttempts)
	repo := &fakeRepo{rows: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	published, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if published != 0 {
		t.Fatalf("expected 0 published, got %d", published)
	}
	if len(pub.messages) != 0 {
		t.Fatalf("expected no publish attempts, got %d", len(pub.messages))
	}
}
