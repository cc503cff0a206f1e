// Package session holds per-user dialogue state. Access is serialized per
// user id: a turn locks the session until its classification, accumulation
// and state transition are done, so concurrent messages from the same user
// cannot race on pending drafts. Sessions for different users proceed in
// parallel.
package session

import (
	"sync"

	"oraculo/internal/core"
)

// State is the dialogue position of a session.
type State string

const (
	StateIdle       State = "idle"
	StatePreview    State = "preview"
	StatePostReport State = "post_report"
)

// UserSession is the mutable per-user conversation state. It lives for the
// process lifetime; UsagePatterns may additionally be loaded from and saved
// to the context store. Callers must hold the lock obtained via
// Store.Acquire for the whole turn.
type UserSession struct {
	mu sync.Mutex

	UserID          string
	State           State
	PendingExpenses []core.DraftExpense
	LastReport      *core.Report
	Patterns        core.UsagePatterns

	// ContextLoaded marks that persisted patterns were already merged in,
	// so the load happens once per session lifetime.
	ContextLoaded bool
}

// Store is a mutex-guarded session map keyed by user id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*UserSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*UserSession)}
}

// Acquire returns the session for userID, creating it on first contact, and
// locks it. The caller must call the returned release function when the
// turn is complete.
func (s *Store) Acquire(userID string) (*UserSession, func()) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &UserSession{
			UserID: userID,
			State:  StateIdle,
			Patterns: core.UsagePatterns{
				TopCategories: make(map[string]int),
			},
		}
		s.sessions[userID] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	return sess, sess.mu.Unlock
}

// Len reports how many sessions exist, for operational logging.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// RegisterInteraction counts an inbound message. Called exactly once per
// turn, whatever the intent turns out to be.
func (u *UserSession) RegisterInteraction() {
	u.Patterns.Interactions++
}

// ReplaceDrafts installs a fresh batch of drafts and enters preview. A full
// multi-expense extraction always replaces the previous pending list
// (one-shot batch semantics).
func (u *UserSession) ReplaceDrafts(drafts []core.DraftExpense) {
	u.PendingExpenses = drafts
	if len(drafts) > 0 {
		u.State = StatePreview
	}
}

// MergeClarification folds newly supplied fields into the single pending
// draft. A present incoming value overwrites; an absent one never clears a
// field already set (last-non-nil-wins). Reports whether a merge happened;
// it does not when the pending list is empty or holds more than one draft,
// since a clarification can only target exactly one expense.
func (u *UserSession) MergeClarification(in core.DraftExpense) bool {
	if len(u.PendingExpenses) != 1 {
		return false
	}
	draft := &u.PendingExpenses[0]
	if in.Description != "" {
		draft.Description = in.Description
	}
	if in.Amount != nil {
		draft.Amount = in.Amount
	}
	if in.Category != "" {
		draft.Category = in.Category
	}
	if !in.Date.IsZero() {
		draft.Date = in.Date
	}
	return true
}

// TakeDraftsForCommit atomically removes the pending batch and leaves
// preview. Returns nil when there is nothing pending, which makes a confirm
// in idle a no-op and a repeated confirm idempotent.
func (u *UserSession) TakeDraftsForCommit() []core.DraftExpense {
	if u.State != StatePreview || len(u.PendingExpenses) == 0 {
		return nil
	}
	drafts := u.PendingExpenses
	u.PendingExpenses = nil
	u.State = StateIdle
	u.LastReport = nil
	return drafts
}

// RestoreDrafts puts a batch back into preview after a failed ledger write,
// so the user can retry confirmation without re-declaring.
func (u *UserSession) RestoreDrafts(drafts []core.DraftExpense) {
	u.PendingExpenses = drafts
	u.State = StatePreview
}

// Reject discards the pending batch without committing.
func (u *UserSession) Reject() {
	u.PendingExpenses = nil
	u.State = StateIdle
}

// AbandonPreview silently drops the pending batch when a preview receives a
// message that is neither confirmation nor rejection; the turn is then
// re-evaluated from idle.
func (u *UserSession) AbandonPreview() {
	if u.State == StatePreview {
		u.PendingExpenses = nil
		u.State = StateIdle
	}
}

// SetReport stores an aggregated report and enters post_report, enabling
// one round of reflective follow-up. Any pending batch is dropped: only
// preview may hold pending drafts, and leaving preview for a report would
// otherwise strand them with no way to confirm or reject.
func (u *UserSession) SetReport(r *core.Report) {
	u.PendingExpenses = nil
	u.LastReport = r
	u.State = StatePostReport
}

// RecordCommit updates behavioral patterns for expenses that were actually
// written to the ledger. Never called on preview.
func (u *UserSession) RecordCommit(drafts []core.DraftExpense) {
	for _, d := range drafts {
		if d.Amount != nil {
			u.Patterns.TotalExpenses = u.Patterns.TotalExpenses.Add(*d.Amount)
		}
		if u.Patterns.TopCategories == nil {
			u.Patterns.TopCategories = make(map[string]int)
		}
		u.Patterns.TopCategories[d.Category]++
	}
}

// MergePersisted folds patterns loaded from the context store into the
// in-memory session. Counters are additive except on first load, where the
// persisted values seed the session.
func (u *UserSession) MergePersisted(p core.UsagePatterns) {
	if u.ContextLoaded {
		return
	}
	u.Patterns.Interactions += p.Interactions
	u.Patterns.TotalExpenses = u.Patterns.TotalExpenses.Add(p.TotalExpenses)
	for cat, n := range p.TopCategories {
		u.Patterns.TopCategories[cat] += n
	}
	u.ContextLoaded = true
}
