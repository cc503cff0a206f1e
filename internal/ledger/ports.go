// Package ledger persists committed expenses and per-user usage context.
package ledger

import (
	"context"
	"errors"
	"time"

	"oraculo/internal/core"
)

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("ledger: not found")

// Ports for the persistence adapters.
type (
	// Writer appends committed expenses. The ledger is append-only from the
	// dialogue's point of view.
	Writer interface {
		Append(ctx context.Context, e core.LedgerEntry) (ref string, err error)
	}

	// Reader lists a user's committed expenses inside an inclusive date range.
	Reader interface {
		ListByPeriod(ctx context.Context, userID string, start, end time.Time) ([]core.LedgerEntry, error)
	}

	// ContextStore persists usage patterns across restarts. Load reports
	// found=false for users with no saved context yet.
	ContextStore interface {
		LoadPatterns(ctx context.Context, userID string) (p core.UsagePatterns, found bool, err error)
		SavePatterns(ctx context.Context, userID string, p core.UsagePatterns) error
	}
)
