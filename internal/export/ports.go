// Package export pushes committed expenses to external destinations.
package export

import (
	"context"

	"oraculo/internal/core"
)

// Sink receives committed ledger entries, one row per entry.
type Sink interface {
	AppendRow(ctx context.Context, e core.LedgerEntry) error
}
