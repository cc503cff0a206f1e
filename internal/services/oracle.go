// Package services runs the oracle's conversation loop: one inbound
// message in, one reply out, with the session locked for the whole turn.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oraculo/internal/amqp"
	"oraculo/internal/core"
	"oraculo/internal/ledger"
	"oraculo/internal/llm"
	"oraculo/internal/log"
	"oraculo/internal/nlp"
	"oraculo/internal/reply"
	"oraculo/internal/report"
	"oraculo/internal/session"
)

// Collaborator is the language model behind free conversation and
// extraction suggestions. May be absent; the oracle degrades gracefully.
type Collaborator interface {
	FreeChat(ctx context.Context, message string) (string, error)
	Suggest(ctx context.Context, message string) (*llm.Suggestion, error)
}

// ExportPublisher hands committed expenses to the export pipeline.
type ExportPublisher interface {
	PublishExpenseExport(ctx context.Context, msg *amqp.ExpenseExportMessage) error
}

type Oracle struct {
	sessions     *session.Store
	writer       ledger.Writer
	contexts     ledger.ContextStore
	reports      *report.Service
	collaborator Collaborator
	publisher    ExportPublisher
	logger       *log.Logger
	now          func() time.Time
}

func NewOracle(
	sessions *session.Store,
	writer ledger.Writer,
	contexts ledger.ContextStore,
	reports *report.Service,
	collaborator Collaborator,
	publisher ExportPublisher,
	logger *log.Logger,
) *Oracle {
	return &Oracle{
		sessions:     sessions,
		writer:       writer,
		contexts:     contexts,
		reports:      reports,
		collaborator: collaborator,
		publisher:    publisher,
		logger:       logger.WithComponent("oracle"),
		now:          time.Now,
	}
}

// HandleMessage runs one conversation turn. The reply is always safe to
// send to the user; a non-nil error means the transport should answer
// with the generic failure line.
func (o *Oracle) HandleMessage(ctx context.Context, userID, message string) (string, error) {
	if strings.TrimSpace(message) == "" || strings.TrimSpace(userID) == "" {
		return "", ErrMissingInput
	}

	sess, release := o.sessions.Acquire(userID)
	defer release()

	o.loadContext(ctx, sess)
	sess.RegisterInteraction()

	now := o.now()
	intent := nlp.ClassifyIntent(message, sess.State == session.StatePreview, sess.LastReport != nil)
	o.logger.DebugContext(ctx, "Classified message",
		"user_id", userID,
		"intent", intent.String(),
		"state", string(sess.State))

	var out string
	var err error
	switch intent {
	case nlp.IntentConfirm:
		out, err = o.confirm(ctx, sess)
	case nlp.IntentReject:
		sess.Reject()
		out = reply.Rejected
	case nlp.IntentReportRequest:
		out, err = o.buildReport(ctx, sess, message, now)
	case nlp.IntentReportFollowup:
		if sess.LastReport != nil {
			out = reply.ReportFollowup(sess.LastReport)
		} else {
			out = reply.AskClarify
		}
	case nlp.IntentExpense:
		out, err = o.declareExpenses(ctx, sess, message, now)
	default:
		out = o.freeChat(ctx, sess, message)
	}

	if errors.Is(err, ErrInsufficientData) {
		out, err = reply.InsufficientData, nil
	}
	if err != nil {
		return "", err
	}

	o.saveContext(ctx, sess)
	return out, nil
}

// confirm commits the pending batch. Drafts are removed from the session
// before any write, so a duplicate confirmation cannot commit twice; on a
// write failure only the uncommitted remainder returns to preview.
func (o *Oracle) confirm(ctx context.Context, sess *session.UserSession) (string, error) {
	drafts := sess.TakeDraftsForCommit()
	if len(drafts) == 0 {
		return reply.AskClarify, nil
	}

	committed := make([]core.LedgerEntry, 0, len(drafts))
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			sess.RestoreDrafts(drafts[i:])
			sess.RecordCommit(drafts[:i])
			o.reports.Invalidate(sess.UserID)
			o.publish(ctx, committed)
			return "", fmt.Errorf("invalid draft %q: %w", d.Description, err)
		}

		var amount core.Money
		if d.Amount != nil {
			amount = *d.Amount
		}
		entry := core.LedgerEntry{
			UserID:      sess.UserID,
			Description: d.Description,
			Amount:      amount,
			Category:    d.Category,
			ExpenseDate: d.Date,
			Status:      core.StatusPending,
			ExpenseType: core.TypeVariable,
		}

		id, err := o.writer.Append(ctx, entry)
		if err != nil {
			// Entries written before the failure are real ledger rows and
			// still go out to the export queue.
			sess.RestoreDrafts(drafts[i:])
			sess.RecordCommit(drafts[:i])
			o.reports.Invalidate(sess.UserID)
			o.publish(ctx, committed)
			return "", fmt.Errorf("commit expense: %w", err)
		}
		entry.ID = id
		committed = append(committed, entry)
	}

	sess.RecordCommit(drafts)
	o.reports.Invalidate(sess.UserID)
	o.publish(ctx, committed)

	return reply.Saved, nil
}

func (o *Oracle) buildReport(ctx context.Context, sess *session.UserSession, message string, now time.Time) (string, error) {
	ref := now
	label := ""
	if month, ok := nlp.MonthInText(message); ok {
		ref = time.Date(now.Year(), month, 1, 0, 0, 0, 0, time.UTC)
		label = nlp.MonthName(month)
	}

	r, err := o.reports.Monthly(ctx, sess.UserID, ref)
	if errors.Is(err, report.ErrNoExpenses) {
		return "", ErrInsufficientData
	}
	if err != nil {
		return "", err
	}

	sess.SetReport(r)
	return reply.Report(r, label), nil
}

// declareExpenses turns a financial message into drafts. A preview whose
// single draft is still missing its amount treats the next message as a
// clarification and merges it; anything else replaces the batch.
func (o *Oracle) declareExpenses(ctx context.Context, sess *session.UserSession, message string, now time.Time) (string, error) {
	awaitingClarification := sess.State == session.StatePreview &&
		len(sess.PendingExpenses) == 1 &&
		sess.PendingExpenses[0].Amount == nil

	drafts := BuildDrafts(message, now)

	if len(drafts) == 0 {
		if awaitingClarification {
			if cents, ok := bareAmount(message); ok {
				sess.MergeClarification(core.DraftExpense{Amount: &core.Money{Cents: cents}})
				return reply.Preview(sess.PendingExpenses), nil
			}
		}
		return o.suggestDraft(ctx, sess, message, now)
	}

	if awaitingClarification && len(drafts) == 1 {
		in := drafts[0]
		if _, hasDate := nlp.ResolveDate(message, now); !hasDate {
			// No temporal cue in the clarification, keep the draft's date.
			in.Date = time.Time{}
		}
		if sess.MergeClarification(in) {
			return reply.Preview(sess.PendingExpenses), nil
		}
	}

	sess.AbandonPreview()
	sess.ReplaceDrafts(drafts)
	return reply.Preview(drafts), nil
}

// suggestDraft asks the collaborator to structure a message the rules
// could not parse. A rejected or unavailable suggestion ends the turn
// with the nothing-found line.
func (o *Oracle) suggestDraft(ctx context.Context, sess *session.UserSession, message string, now time.Time) (string, error) {
	if o.collaborator == nil {
		return reply.NothingFound, nil
	}

	s, err := o.collaborator.Suggest(ctx, message)
	if err != nil {
		o.logger.WarnContext(ctx, "Extraction suggestion failed",
			"user_id", sess.UserID,
			"error", fmt.Errorf("%w: %v", ErrExtractionEmpty, err))
		return reply.NothingFound, nil
	}

	draft := s.ToDraft(now)
	if draft.Description == "" {
		return reply.NothingFound, nil
	}
	if draft.Category == core.CategoryOther {
		draft.Category = nlp.ClassifyCategory(draft.Description)
	}

	sess.AbandonPreview()
	sess.ReplaceDrafts([]core.DraftExpense{draft})
	return reply.Preview(sess.PendingExpenses), nil
}

func (o *Oracle) freeChat(ctx context.Context, sess *session.UserSession, message string) string {
	// A preview answered with small talk is abandoned; a later "sim" must
	// not commit a batch the user walked away from.
	sess.AbandonPreview()

	if sess.State == session.StatePostReport && sess.LastReport != nil {
		return reply.PostReportNudge(sess.LastReport)
	}

	base := llm.FallbackUnavailable
	if o.collaborator != nil {
		out, err := o.collaborator.FreeChat(ctx, message)
		if err != nil {
			o.logger.WarnContext(ctx, "Free chat failed",
				"user_id", sess.UserID,
				"error", fmt.Errorf("%w: %v", ErrCollaboratorFailure, err))
		} else {
			base = out
		}
	}

	return reply.DecorateFreeChat(base, InferProfile(sess.Patterns), sess.Patterns)
}

func (o *Oracle) loadContext(ctx context.Context, sess *session.UserSession) {
	if sess.ContextLoaded || o.contexts == nil {
		return
	}
	p, _, err := o.contexts.LoadPatterns(ctx, sess.UserID)
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to load user context",
			"user_id", sess.UserID, "error", err)
		return
	}
	sess.MergePersisted(p)
}

func (o *Oracle) saveContext(ctx context.Context, sess *session.UserSession) {
	if o.contexts == nil {
		return
	}
	if err := o.contexts.SavePatterns(ctx, sess.UserID, sess.Patterns); err != nil {
		o.logger.WarnContext(ctx, "Failed to save user context",
			"user_id", sess.UserID, "error", err)
	}
}

// publish hands committed entries to the export queue. Publish failures
// are logged and swallowed; the ledger write already succeeded.
func (o *Oracle) publish(ctx context.Context, entries []core.LedgerEntry) {
	if o.publisher == nil {
		return
	}
	for _, e := range entries {
		if err := o.publisher.PublishExpenseExport(ctx, amqp.NewExpenseExportMessage(e)); err != nil {
			o.logger.WarnContext(ctx, "Failed to publish expense export",
				"id", e.ID, "error", err)
		}
	}
}

// BuildDrafts segments a message, extracts one item per segment and
// classifies each description. Segments with no descriptive text are
// dropped.
func BuildDrafts(message string, now time.Time) []core.DraftExpense {
	var drafts []core.DraftExpense
	for _, seg := range nlp.SegmentMessage(message, now) {
		item, ok := nlp.ExtractItem(seg.Text)
		if !ok {
			continue
		}
		drafts = append(drafts, core.DraftExpense{
			Description: item.Description,
			Amount:      item.Amount,
			Category:    nlp.ClassifyCategory(item.Description),
			Date:        seg.Date,
		})
	}
	return drafts
}

// bareAmount recognizes a clarification that is just a value, like "45",
// "foi 45" or "45 reais".
func bareAmount(message string) (int64, bool) {
	fields := strings.Fields(nlp.Normalize(message))
	if len(fields) == 0 || len(fields) > 3 {
		return 0, false
	}
	for _, f := range fields {
		if cents, err := core.ParseAmountCents(f); err == nil {
			return cents, true
		}
	}
	return 0, false
}
