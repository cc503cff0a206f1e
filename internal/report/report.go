// Package report aggregates ledger entries into monthly summaries.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oraculo/internal/cache"
	"oraculo/internal/core"
	"oraculo/internal/ledger"
	"oraculo/internal/log"
)

// ErrNoExpenses signals that the requested period has no entries at all.
var ErrNoExpenses = errors.New("no expenses recorded in period")

type Service struct {
	reader ledger.Reader
	cache  *cache.LRU[*core.Report]
	logger *log.Logger
}

func NewService(reader ledger.Reader, c *cache.LRU[*core.Report], logger *log.Logger) *Service {
	return &Service{reader: reader, cache: c, logger: logger.WithComponent("report")}
}

func cacheKey(userID string, start time.Time) string {
	return fmt.Sprintf("%s:%s", userID, start.Format("2006-01"))
}

// Monthly builds the report for the calendar month containing ref.
// Results are cached per user and month until Invalidate.
func (s *Service) Monthly(ctx context.Context, userID string, ref time.Time) (*core.Report, error) {
	start, end := core.MonthWindow(ref)

	key := cacheKey(userID, start)
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			s.logger.DebugContext(ctx, "Report cache hit", "user_id", userID, "month", start.Format("2006-01"))
			return r, nil
		}
	}

	entries, err := s.reader.ListByPeriod(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses for report: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoExpenses
	}

	r := Aggregate(entries)
	if s.cache != nil {
		s.cache.Set(key, r)
	}
	return r, nil
}

// Invalidate drops every cached month for the user. Called after a commit.
func (s *Service) Invalidate(userID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(userID + ":")
	}
}

// Aggregate folds entries into a total and per-category subtotals.
func Aggregate(entries []core.LedgerEntry) *core.Report {
	r := &core.Report{ByCategory: make(map[string]core.Money)}
	for _, e := range entries {
		r.Total = r.Total.Add(e.Amount)
		r.ByCategory[e.Category] = r.ByCategory[e.Category].Add(e.Amount)
	}
	return r
}
