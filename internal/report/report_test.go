package report

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"oraculo/internal/cache"
	"oraculo/internal/core"
	"oraculo/internal/ledger"
	"oraculo/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Component: "test"})
}

func seed(t *testing.T, repo *ledger.MemoryRepository, userID string, day time.Time, cents int64, category string) {
	t.Helper()
	_, err := repo.Append(context.Background(), core.LedgerEntry{
		UserID:      userID,
		Description: "item",
		Amount:      core.Money{Cents: cents},
		Category:    category,
		ExpenseDate: day,
		Status:      core.StatusPending,
		ExpenseType: core.TypeVariable,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestMonthlyAggregates(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	ref := time.Date(2026, time.March, 16, 12, 0, 0, 0, time.UTC)

	seed(t, repo, "u1", time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), 4500, "Alimentação")
	seed(t, repo, "u1", time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), 3000, "Transporte")
	seed(t, repo, "u1", time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), 9999, "Lazer")

	svc := NewService(repo, cache.NewLRU[*core.Report](8, time.Minute), testLogger())

	r, err := svc.Monthly(context.Background(), "u1", ref)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if r.Total.Cents != 7500 {
		t.Errorf("Total = %d cents, want 7500", r.Total.Cents)
	}
	if r.ByCategory["Alimentação"].Cents != 4500 {
		t.Errorf("Alimentação = %d cents, want 4500", r.ByCategory["Alimentação"].Cents)
	}
	if len(r.ByCategory) != 2 {
		t.Errorf("ByCategory has %d categories, want 2", len(r.ByCategory))
	}
}

func TestMonthlyNoExpenses(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	svc := NewService(repo, nil, testLogger())

	_, err := svc.Monthly(context.Background(), "u1", time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNoExpenses) {
		t.Fatalf("expected ErrNoExpenses, got %v", err)
	}
}

func TestMonthlyCacheAndInvalidate(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	ref := time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	seed(t, repo, "u1", day, 4500, "Alimentação")

	svc := NewService(repo, cache.NewLRU[*core.Report](8, time.Minute), testLogger())

	first, err := svc.Monthly(context.Background(), "u1", ref)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}

	// A new entry is invisible until the cache is invalidated.
	seed(t, repo, "u1", day, 3000, "Transporte")

	cached, err := svc.Monthly(context.Background(), "u1", ref)
	if err != nil {
		t.Fatalf("Monthly cached: %v", err)
	}
	if cached.Total.Cents != first.Total.Cents {
		t.Errorf("expected cached total %d, got %d", first.Total.Cents, cached.Total.Cents)
	}

	svc.Invalidate("u1")

	fresh, err := svc.Monthly(context.Background(), "u1", ref)
	if err != nil {
		t.Fatalf("Monthly after invalidate: %v", err)
	}
	if fresh.Total.Cents != 7500 {
		t.Errorf("Total = %d cents after invalidate, want 7500", fresh.Total.Cents)
	}
}
