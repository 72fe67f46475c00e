package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orchidcraft/orchid-backend/pkg/logger"
)

type fakeExpirer struct {
	batches []int
	cutoffs []time.Time
	err     error
}

func (f *fakeExpirer) ExpireStale(_ context.Context, cutoff time.Time, limit int) (int, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	if n > limit {
		n = limit
	}
	return n, nil
}

func newOrderExpiryJob(t *testing.T, expirer *fakeExpirer) *orderExpiryJob {
	t.Helper()
	jobIface, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:     logger.Nop(),
		Orders:     expirer,
		StaleAfter: 2 * time.Hour,
		BatchSize:  10,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}
	return jobIface.(*orderExpiryJob)
}

func TestOrderExpiryJobDrainsFullBatches(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{batches: []int{10, 10, 3}}
	job := newOrderExpiryJob(t, expirer)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(expirer.cutoffs) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(expirer.cutoffs))
	}
	if want := now.Add(-2 * time.Hour); !expirer.cutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, expirer.cutoffs[0])
	}
}

func TestOrderExpiryJobPropagatesError(t *testing.T) {
	job := newOrderExpiryJob(t, &fakeExpirer{err: errors.New("db down")})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestOrderExpiryJobRequiresOrders(t *testing.T) {
	if _, err := NewOrderExpiryJob(OrderExpiryJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected missing orders service to fail")
	}
}
