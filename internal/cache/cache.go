package cache

import (
	"context"
	"time"

	"lodgepos/backoffice/internal/domain"
)

// SummaryCache holds day summaries keyed by calendar date. It is advisory:
// a miss or an error always sends the caller back to the store.
type SummaryCache interface {
	Get(ctx context.Context, date string) (*domain.DaySummary, bool, error)
	Set(ctx context.Context, date string, value *domain.DaySummary, ttl time.Duration) error
	Invalidate(ctx context.Context, date string) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _ string) (*domain.DaySummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ string, _ *domain.DaySummary, _ time.Duration) error {
	return nil
}

func (NoopSummaryCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
