package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"oraculo/internal/core"
)

// MemoryRepository is an in-memory Writer/Reader/ContextStore used by tests
// and by deployments that run without a database file.
type MemoryRepository struct {
	mu       sync.RWMutex
	entries  []core.LedgerEntry
	patterns map[string]core.UsagePatterns
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{patterns: make(map[string]core.UsagePatterns)}
}

func (r *MemoryRepository) Append(_ context.Context, e core.LedgerEntry) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = uuid.NewString()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.entries = append(r.entries, e)
	return e.ID, nil
}

func (r *MemoryRepository) ListByPeriod(_ context.Context, userID string, start, end time.Time) ([]core.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []core.LedgerEntry
	for _, e := range r.entries {
		if e.UserID != userID {
			continue
		}
		if e.ExpenseDate.Before(start) || e.ExpenseDate.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepository) LoadPatterns(_ context.Context, userID string) (core.UsagePatterns, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patterns[userID]
	return p, ok, nil
}

func (r *MemoryRepository) SavePatterns(_ context.Context, userID string, p core.UsagePatterns) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.patterns[userID] = p
	return nil
}
