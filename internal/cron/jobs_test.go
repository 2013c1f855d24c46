package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nearcart/nearcart-backend/pkg/logger"
)

type fakeExpirer struct {
	olderThan time.Duration
	limit     int
	called    int
	err       error
}

func (f *fakeExpirer) ExpirePlaced(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	f.called++
	f.olderThan = olderThan
	f.limit = limit
	if f.err != nil {
		return 0, f.err
	}
	return 3, nil
}

func TestOrderTTLJobExpiresPlacedOrders(t *testing.T) {
	expirer := &fakeExpirer{}
	job, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Orders: expirer,
		TTL:    48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewOrderTTLJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expirer.called != 1 {
		t.Fatalf("expected one expiry sweep, got %d", expirer.called)
	}
	if expirer.olderThan != 48*time.Hour {
		t.Fatalf("expected ttl 48h, got %s", expirer.olderThan)
	}
	if expirer.limit != defaultExpireBatch {
		t.Fatalf("expected default batch %d, got %d", defaultExpireBatch, expirer.limit)
	}
}

func TestOrderTTLJobPropagatesError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("boom")}
	job, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Orders: expirer,
		TTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewOrderTTLJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeRetentionRepo struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

func TestOutboxRetentionJobDeletesPublishedRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRetentionRepo{}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-defaultRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeRetentionRepo{err: errors.New("boom")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
