// Package report builds the back-office day summary. The heavy lifting
// (aggregation) lives in the store; this engine adds the cache layer and
// the invalidation hook the service calls after mutations.
package report

import (
	"context"
	"fmt"
	"time"

	"lodgepos/backoffice/internal/cache"
	"lodgepos/backoffice/internal/domain"
	"lodgepos/backoffice/internal/store"
)

type Engine struct {
	repo     store.Repository
	cache    cache.SummaryCache
	cacheTTL time.Duration
}

func NewEngine(repo store.Repository, summaryCache cache.SummaryCache, cacheTTL time.Duration) *Engine {
	if summaryCache == nil {
		summaryCache = cache.NoopSummaryCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}

	return &Engine{
		repo:     repo,
		cache:    summaryCache,
		cacheTTL: cacheTTL,
	}
}

// DaySummary serves the summary for a date, going through the cache. An
// empty date means today. Cache errors are ignored and fall through to a
// fresh computation.
func (e *Engine) DaySummary(ctx context.Context, date string) (*domain.DaySummary, error) {
	if date == "" {
		date = time.Now().UTC().Format(domain.DateLayout)
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, fmt.Errorf("date %q is not YYYY-MM-DD: %w", date, store.ErrValidation)
	}

	if cached, ok, err := e.cache.Get(ctx, date); err == nil && ok {
		return cached, nil
	}

	summary, err := e.repo.GetDaySummary(ctx, date)
	if err != nil {
		return nil, err
	}
	_ = e.cache.Set(ctx, date, summary, e.cacheTTL)
	return summary, nil
}

// Invalidate drops the cached summary for a date after a mutation touched
// it. Best effort; the next read recomputes either way once the TTL runs
// out.
func (e *Engine) Invalidate(ctx context.Context, date string) {
	if date == "" {
		return
	}
	_ = e.cache.Invalidate(ctx, date)
}
