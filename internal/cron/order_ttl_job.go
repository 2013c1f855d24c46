package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nearcart/nearcart-backend/pkg/logger"
)

const defaultExpireBatch = 200

// placedExpirer cancels placed orders the seller never acted on.
// Implemented by the orders service.
type placedExpirer interface {
	ExpirePlaced(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// OrderTTLJobParams configure the placed-order expiry job.
type OrderTTLJobParams struct {
	Logger    *logger.Logger
	Orders    placedExpirer
	TTL       time.Duration
	BatchSize int
}

// NewOrderTTLJob builds the cron job that expires stale placed orders.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("placed order ttl must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpireBatch
	}
	return &orderTTLJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    params.TTL,
		batch:  batch,
	}, nil
}

type orderTTLJob struct {
	logg   *logger.Logger
	orders placedExpirer
	ttl    time.Duration
	batch  int
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	expired, err := j.orders.ExpirePlaced(ctx, j.ttl, j.batch)
	if err != nil {
		return fmt.Errorf("expire placed orders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"ttl":     j.ttl.String(),
		"expired": expired,
	})
	j.logg.Info(logCtx, "placed order expiry complete")
	return nil
}
