package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lodgepos/backoffice/internal/domain"
	"lodgepos/backoffice/internal/store"
	"lodgepos/backoffice/internal/store/memory"
)

// mapCache is an in-process SummaryCache that counts store round-trips
// saved and lost.
type mapCache struct {
	entries map[string]*domain.DaySummary
	sets    int
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*domain.DaySummary{}}
}

func (c *mapCache) Get(_ context.Context, date string) (*domain.DaySummary, bool, error) {
	summary, ok := c.entries[date]
	if ok {
		c.hits++
	}
	return summary, ok, nil
}

func (c *mapCache) Set(_ context.Context, date string, value *domain.DaySummary, _ time.Duration) error {
	c.sets++
	c.entries[date] = value
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, date string) error {
	delete(c.entries, date)
	return nil
}

func TestDaySummaryAggregatesClosedShifts(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSeeded()

	opened, err := repo.OpenShift(ctx, domain.Shift{OpenedBy: "admin", StartCash: decimal.RequireFromString("100.00")})
	if err != nil {
		t.Fatalf("open shift: %v", err)
	}
	if _, err := repo.AddShiftEntry(ctx, domain.ShiftEntry{ShiftID: opened.ID, Kind: domain.EntryKindSale, Amount: decimal.RequireFromString("500.00")}); err != nil {
		t.Fatalf("add sale: %v", err)
	}
	if _, err := repo.AddShiftEntry(ctx, domain.ShiftEntry{ShiftID: opened.ID, Kind: domain.EntryKindExpense, Amount: decimal.RequireFromString("50.00")}); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	closed, err := repo.CloseShift(ctx, store.CloseShiftParams{
		ShiftID:       opened.ID,
		ClosedBy:      "admin",
		EndCashActual: decimal.RequireFromString("540.00"),
	})
	if err != nil {
		t.Fatalf("close shift: %v", err)
	}

	engine := NewEngine(repo, nil, time.Minute)
	date := closed.ClosedAt.UTC().Format(domain.DateLayout)
	summary, err := engine.DaySummary(ctx, date)
	if err != nil {
		t.Fatalf("day summary: %v", err)
	}
	if summary.ShiftsClosed != 1 {
		t.Fatalf("expected 1 closed shift, got %d", summary.ShiftsClosed)
	}
	if !summary.TotalSales.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("expected sales 500.00, got %s", summary.TotalSales)
	}
	if !summary.TotalDifference.Equal(decimal.RequireFromString("-10.00")) {
		t.Fatalf("expected difference -10.00, got %s", summary.TotalDifference)
	}
	if summary.VarianceFlag != "warning" {
		t.Fatalf("expected warning variance for a 10.00 short, got %q", summary.VarianceFlag)
	}
}

func TestDaySummaryIsServedFromCacheUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSeeded()
	summaryCache := newMapCache()
	engine := NewEngine(repo, summaryCache, time.Minute)

	date := time.Now().UTC().Format(domain.DateLayout)
	first, err := engine.DaySummary(ctx, date)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if summaryCache.sets != 1 {
		t.Fatalf("expected the first read to populate the cache, sets=%d", summaryCache.sets)
	}

	second, err := engine.DaySummary(ctx, date)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if summaryCache.hits != 1 {
		t.Fatalf("expected the second read to hit the cache, hits=%d", summaryCache.hits)
	}
	if second.GeneratedAt != first.GeneratedAt {
		t.Fatalf("expected the cached summary verbatim")
	}

	engine.Invalidate(ctx, date)
	if _, err := engine.DaySummary(ctx, date); err != nil {
		t.Fatalf("read after invalidate: %v", err)
	}
	if summaryCache.sets != 2 {
		t.Fatalf("expected a recompute after invalidate, sets=%d", summaryCache.sets)
	}
}

func TestDaySummaryRejectsMalformedDate(t *testing.T) {
	engine := NewEngine(memory.NewSeeded(), nil, time.Minute)
	if _, err := engine.DaySummary(context.Background(), "24-08-2026"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
