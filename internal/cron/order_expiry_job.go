package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/orchidcraft/orchid-backend/pkg/logger"
)

const (
	defaultStaleAfter  = 24 * time.Hour
	expiryBatchSize    = 100
	expiryMaxBatches   = 50
	orderExpiryJobName = "order-expiry"
)

type staleOrderExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type OrderExpiryJobParams struct {
	Logger     *logger.Logger
	Orders     staleOrderExpirer
	StaleAfter time.Duration
	BatchSize  int
}

// NewOrderExpiryJob cancels orders that never got paid. Stock only moves at
// payment, so nothing is released here.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = expiryBatchSize
	}
	return &orderExpiryJob{
		logg:       params.Logger,
		orders:     params.Orders,
		staleAfter: staleAfter,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg       *logger.Logger
	orders     staleOrderExpirer
	staleAfter time.Duration
	batch      int
	now        func() time.Time
}

func (j *orderExpiryJob) Name() string { return orderExpiryJobName }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	total := 0
	for i := 0; i < expiryMaxBatches; i++ {
		n, err := j.orders.ExpireStale(ctx, cutoff, j.batch)
		total += n
		if err != nil {
			return fmt.Errorf("expire stale orders: %w", err)
		}
		if n < j.batch {
			break
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": total,
	}), "order expiry complete")
	return nil
}
