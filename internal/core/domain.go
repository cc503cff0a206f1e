package core

import (
	"errors"
	"strings"
	"time"
)

// Ledger record constants. Every committed expense is written with these
// until a settlement flow marks it otherwise.
const (
	StatusPending = "pendente"
	TypeVariable  = "Variável"
)

// CategoryOther is the fallback category when no keyword matches.
const CategoryOther = "Outros"

type (
	// DraftExpense is an in-progress expense awaiting user confirmation.
	// Amount is nil while the user has not supplied a value; Date is always
	// concrete before commit (defaults to today at draft creation).
	DraftExpense struct {
		Description string
		Amount      *Money
		Category    string
		Date        time.Time
	}

	// LedgerEntry is a committed expense record as stored by the ledger.
	LedgerEntry struct {
		ID          string
		UserID      string
		Description string
		Amount      Money
		Category    string
		ExpenseDate time.Time
		Status      string
		ExpenseType string
		CreatedAt   time.Time
	}

	// Report aggregates committed expenses over a period. ByCategory keys
	// carry no ordering; presentation sorts by descending amount.
	Report struct {
		Total      Money
		ByCategory map[string]Money
	}

	// UsagePatterns tracks per-user behavior. Interactions counts every
	// inbound message; the other fields change only when expenses are
	// actually committed.
	UsagePatterns struct {
		Interactions  int
		TotalExpenses Money
		TopCategories map[string]int
	}
)

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrUnresolvedDate   = errors.New("unresolved expense date")
)

// Validate checks that a draft is ready to be committed.
func (d DraftExpense) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if d.Amount != nil && d.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if d.Date.IsZero() {
		return ErrUnresolvedDate
	}
	return nil
}

// TopCategory returns the category with the highest total, or "" for an
// empty report. Ties resolve to the lexicographically smallest name so the
// choice is stable.
func (r Report) TopCategory() (string, Money) {
	var best string
	var bestAmount Money
	for name, amount := range r.ByCategory {
		if best == "" || amount.Cents > bestAmount.Cents ||
			(amount.Cents == bestAmount.Cents && name < best) {
			best = name
			bestAmount = amount
		}
	}
	return best, bestAmount
}

// Day truncates t to midnight UTC. Ledger dates and draft dates are always
// day-granular.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns the first and last day of the month containing ref.
func MonthWindow(ref time.Time) (start, end time.Time) {
	start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}
