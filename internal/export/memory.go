package export

import (
	"context"
	"sync"

	"oraculo/internal/core"
)

// MemorySink collects rows in memory. Used by tests and by the worker
// when no spreadsheet is configured.
type MemorySink struct {
	mu   sync.Mutex
	rows []core.LedgerEntry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) AppendRow(_ context.Context, e core.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, e)
	return nil
}

func (s *MemorySink) Rows() []core.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LedgerEntry, len(s.rows))
	copy(out, s.rows)
	return out
}
