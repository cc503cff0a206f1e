package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"oraculo/internal/amqp"
	"oraculo/internal/cache"
	"oraculo/internal/core"
	"oraculo/internal/ledger"
	"oraculo/internal/llm"
	"oraculo/internal/log"
	"oraculo/internal/reply"
	"oraculo/internal/report"
	"oraculo/internal/session"
)

// Monday.
var testNow = time.Date(2026, time.March, 16, 15, 0, 0, 0, time.UTC)

type stubCollaborator struct {
	freeChatReply string
	freeChatErr   error
	suggestion    *llm.Suggestion
	suggestErr    error
}

func (s *stubCollaborator) FreeChat(context.Context, string) (string, error) {
	return s.freeChatReply, s.freeChatErr
}

func (s *stubCollaborator) Suggest(context.Context, string) (*llm.Suggestion, error) {
	return s.suggestion, s.suggestErr
}

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ExpenseExportMessage
}

func (p *capturePublisher) PublishExpenseExport(_ context.Context, msg *amqp.ExpenseExportMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

type flakyWriter struct {
	inner    ledger.Writer
	failures int
	failOn   int // 1-based call number that fails, 0 disables
	calls    int
}

func (w *flakyWriter) Append(ctx context.Context, e core.LedgerEntry) (string, error) {
	w.calls++
	if w.failures > 0 {
		w.failures--
		return "", errors.New("ledger unavailable")
	}
	if w.failOn > 0 && w.calls == w.failOn {
		return "", errors.New("ledger unavailable")
	}
	return w.inner.Append(ctx, e)
}

type fixture struct {
	oracle    *Oracle
	repo      *ledger.MemoryRepository
	publisher *capturePublisher
	collab    *stubCollaborator
	writer    *flakyWriter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := log.New(log.Config{Level: slog.LevelError, Component: "test"})
	repo := ledger.NewMemoryRepository()
	writer := &flakyWriter{inner: repo}
	publisher := &capturePublisher{}
	collab := &stubCollaborator{freeChatReply: "resposta do oráculo"}
	reports := report.NewService(repo, cache.NewLRU[*core.Report](16, time.Minute), logger)

	o := NewOracle(session.NewStore(), writer, repo, reports, collab, publisher, logger)
	o.now = func() time.Time { return testNow }

	return &fixture{oracle: o, repo: repo, publisher: publisher, collab: collab, writer: writer}
}

func (f *fixture) send(t *testing.T, userID, message string) string {
	t.Helper()
	out, err := f.oracle.HandleMessage(context.Background(), userID, message)
	if err != nil {
		t.Fatalf("HandleMessage(%q): %v", message, err)
	}
	return out
}

func TestMissingInput(t *testing.T) {
	f := newFixture(t)

	if _, err := f.oracle.HandleMessage(context.Background(), "", "oi"); !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected ErrMissingInput for empty user, got %v", err)
	}
	if _, err := f.oracle.HandleMessage(context.Background(), "u1", "  "); !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected ErrMissingInput for blank message, got %v", err)
	}
}

func TestDeclareConfirmCommit(t *testing.T) {
	f := newFixture(t)

	preview := f.send(t, "u1", "gastei 45 no mercado e 30 de uber ontem")
	if !strings.Contains(preview, "1) mercado — R$ 45,00 — Alimentação") {
		t.Errorf("missing mercado line:\n%s", preview)
	}
	if !strings.Contains(preview, "2) uber — R$ 30,00 — Transporte") {
		t.Errorf("missing uber line:\n%s", preview)
	}

	saved := f.send(t, "u1", "sim")
	if saved != reply.Saved {
		t.Fatalf("confirm reply = %q", saved)
	}

	entries, err := f.repo.ListByPeriod(context.Background(), "u1",
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListByPeriod: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 committed entries, got %d", len(entries))
	}

	// The date cue scopes only its own segment.
	for _, e := range entries {
		switch e.Description {
		case "mercado":
			if e.ExpenseDate != time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC) {
				t.Errorf("mercado dated %v, want today", e.ExpenseDate)
			}
		case "uber":
			if e.ExpenseDate != time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC) {
				t.Errorf("uber dated %v, want yesterday", e.ExpenseDate)
			}
		}
	}

	if len(f.publisher.msgs) != 2 {
		t.Errorf("expected 2 export messages, got %d", len(f.publisher.msgs))
	}

	p, ok, err := f.repo.LoadPatterns(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("LoadPatterns: ok=%v err=%v", ok, err)
	}
	if p.TotalExpenses.Cents != 7500 {
		t.Errorf("TotalExpenses = %d cents, want 7500", p.TotalExpenses.Cents)
	}
	if p.Interactions != 2 {
		t.Errorf("Interactions = %d, want 2", p.Interactions)
	}
}

func TestRejectDiscardsPreview(t *testing.T) {
	f := newFixture(t)

	f.send(t, "u1", "gastei 45 no mercado")
	out := f.send(t, "u1", "não")
	if out != reply.Rejected {
		t.Fatalf("reject reply = %q", out)
	}

	entries, _ := f.repo.ListByPeriod(context.Background(), "u1",
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	if len(entries) != 0 {
		t.Errorf("rejected drafts must not be committed, found %d entries", len(entries))
	}
}

func TestClarificationMerge(t *testing.T) {
	f := newFixture(t)

	preview := f.send(t, "u1", "comprei presente pra minha mãe")
	if !strings.Contains(preview, "Valor não informado") {
		t.Fatalf("expected amountless preview:\n%s", preview)
	}

	merged := f.send(t, "u1", "45")
	if !strings.Contains(merged, "R$ 45,00") {
		t.Fatalf("bare amount should merge into the draft:\n%s", merged)
	}
	if !strings.Contains(merged, "presente") {
		t.Errorf("description lost during merge:\n%s", merged)
	}

	if out := f.send(t, "u1", "sim"); out != reply.Saved {
		t.Fatalf("confirm reply = %q", out)
	}
}

func TestNewBatchReplacesPreview(t *testing.T) {
	f := newFixture(t)

	f.send(t, "u1", "gastei 45 no mercado")
	preview := f.send(t, "u1", "gastei 20 na farmacia e 10 no estacionamento")

	if strings.Contains(preview, "mercado") {
		t.Errorf("old draft should be replaced:\n%s", preview)
	}
	if !strings.Contains(preview, "farmacia") || !strings.Contains(preview, "estacionamento") {
		t.Errorf("new batch incomplete:\n%s", preview)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.send(t, "u1", "gastei 45 no mercado")
	f.send(t, "u1", "sim")
	f.send(t, "u1", "sim") // second confirm lands in idle

	entries, _ := f.repo.ListByPeriod(context.Background(), "u1",
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	if len(entries) != 1 {
		t.Errorf("duplicate confirm must not duplicate entries, got %d", len(entries))
	}
}

func TestCommitFailureRestoresPreview(t *testing.T) {
	f := newFixture(t)
	f.writer.failures = 1

	f.send(t, "u1", "gastei 45 no mercado")

	if _, err := f.oracle.HandleMessage(context.Background(), "u1", "sim"); err == nil {
		t.Fatal("expected commit error")
	}

	// The draft is back in preview; a retry succeeds.
	if out := f.send(t, "u1", "sim"); out != reply.Saved {
		t.Fatalf("retry reply = %q", out)
	}

	entries, _ := f.repo.ListByPeriod(context.Background(), "u1",
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	if len(entries) != 1 {
		t.Errorf("expected exactly 1 entry after retry, got %d", len(entries))
	}
}

func TestPartialCommitPublishesPrefix(t *testing.T) {
	f := newFixture(t)
	f.writer.failOn = 2

	f.send(t, "u1", "gastei 45 no mercado e 30 de uber")
	if _, err := f.oracle.HandleMessage(context.Background(), "u1", "sim"); err == nil {
		t.Fatal("expected commit error")
	}

	// The entry written before the failure is a real ledger row and must
	// reach the export queue.
	if len(f.publisher.msgs) != 1 {
		t.Fatalf("expected 1 export message after partial commit, got %d", len(f.publisher.msgs))
	}
	if f.publisher.msgs[0].Description != "mercado" {
		t.Errorf("exported %q, want mercado", f.publisher.msgs[0].Description)
	}

	// Retrying commits the remainder; nothing is exported twice.
	if out := f.send(t, "u1", "sim"); out != reply.Saved {
		t.Fatalf("retry reply = %q", out)
	}
	if len(f.publisher.msgs) != 2 {
		t.Errorf("expected 2 export messages after retry, got %d", len(f.publisher.msgs))
	}

	entries, _ := f.repo.ListByPeriod(context.Background(), "u1",
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	if len(entries) != 2 {
		t.Errorf("expected 2 entries after retry, got %d", len(entries))
	}
}

func TestReportDuringPreviewDropsDrafts(t *testing.T) {
	f := newFixture(t)

	f.send(t, "u1", "gastei 45 no mercado")
	f.send(t, "u1", "sim")

	// A report request while a new batch is pending abandons the batch.
	f.send(t, "u1", "gastei 30 de uber")
	rep := f.send(t, "u1", "me mostra o relatório")
	if !strings.Contains(rep, "Total gasto") {
		t.Fatalf("expected a report:\n%s", rep)
	}

	if out := f.send(t, "u1", "sim"); out == reply.Saved {
		t.Fatal("a confirm after the report must not commit the abandoned draft")
	}

	entries, _ := f.repo.ListByPeriod(context.Background(), "u1",
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	if len(entries) != 1 {
		t.Errorf("expected only the committed entry, got %d", len(entries))
	}
}

func TestFreeChatAbandonsPreview(t *testing.T) {
	f := newFixture(t)

	f.send(t, "u1", "gastei 45 no mercado")
	f.send(t, "u1", "tudo tranquilo por aí?")

	if out := f.send(t, "u1", "sim"); out == reply.Saved {
		t.Fatal("a confirm after small talk must not commit the abandoned draft")
	}

	entries, _ := f.repo.ListByPeriod(context.Background(), "u1",
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	if len(entries) != 0 {
		t.Errorf("abandoned drafts must not be committed, found %d entries", len(entries))
	}
}

func TestReportFlow(t *testing.T) {
	f := newFixture(t)

	f.send(t, "u1", "gastei 45 no mercado e 30 de uber")
	f.send(t, "u1", "sim")

	rep := f.send(t, "u1", "me mostra o relatório")
	if !strings.Contains(rep, "Total gasto: **R$ 75,00**") {
		t.Fatalf("report total missing:\n%s", rep)
	}
	if !strings.Contains(rep, "Alimentação: R$ 45,00 (60.0%)") {
		t.Errorf("category share missing:\n%s", rep)
	}

	followup := f.send(t, "u1", "o que você acha?")
	if !strings.Contains(followup, "**Alimentação**") {
		t.Errorf("followup should name the top category:\n%s", followup)
	}

	// Still post-report: a plain chat message gets the nudge.
	nudge := f.send(t, "u1", "pois é")
	if !strings.Contains(nudge, "maior peso (60.0%)") {
		t.Errorf("expected post-report nudge:\n%s", nudge)
	}
}

func TestReportInsufficientData(t *testing.T) {
	f := newFixture(t)

	out := f.send(t, "u1", "quero um diagnóstico")
	if out != reply.InsufficientData {
		t.Fatalf("reply = %q, want insufficient data line", out)
	}
}

func TestReportNamedMonth(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.Append(context.Background(), core.LedgerEntry{
		UserID:      "u1",
		Description: "show",
		Amount:      core.Money{Cents: 12000},
		Category:    "Lazer",
		ExpenseDate: time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
		Status:      core.StatusPending,
		ExpenseType: core.TypeVariable,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	out := f.send(t, "u1", "relatório de fevereiro")
	if !strings.Contains(out, "Relatório fevereiro") {
		t.Errorf("missing month label:\n%s", out)
	}
	if !strings.Contains(out, "R$ 120,00") {
		t.Errorf("missing February total:\n%s", out)
	}
}

func TestFreeChatDecoration(t *testing.T) {
	f := newFixture(t)

	out := f.send(t, "u1", "oi, tudo bem?")
	if !strings.Contains(out, "resposta do oráculo") {
		t.Errorf("collaborator reply missing:\n%s", out)
	}
	if !strings.Contains(out, "Primeira vez por aqui") {
		t.Errorf("first interaction greeting missing:\n%s", out)
	}
}

func TestFreeChatCollaboratorDown(t *testing.T) {
	f := newFixture(t)
	f.collab.freeChatErr = errors.New("api down")
	f.collab.freeChatReply = ""

	out := f.send(t, "u1", "oi, tudo bem?")
	if !strings.Contains(out, llm.FallbackUnavailable) {
		t.Errorf("expected fallback line:\n%s", out)
	}
}

func TestSuggestionFallback(t *testing.T) {
	f := newFixture(t)
	f.collab.suggestion = &llm.Suggestion{
		Description: "vaquinha do escritório",
		Amount:      "25",
	}

	// Carries a value but no descriptive token survives filtering.
	out := f.send(t, "u1", "paguei 25")
	if !strings.Contains(out, "vaquinha do escritório") {
		t.Errorf("suggestion should seed the preview:\n%s", out)
	}
	if !strings.Contains(out, "R$ 25,00") {
		t.Errorf("suggested amount missing:\n%s", out)
	}
}

func TestSuggestionUnavailable(t *testing.T) {
	f := newFixture(t)
	f.collab.suggestErr = llm.ErrMalformedSuggestion

	out := f.send(t, "u1", "paguei 25")
	if out != reply.NothingFound {
		t.Errorf("reply = %q, want nothing-found line", out)
	}
}

func TestInferProfile(t *testing.T) {
	tests := []struct {
		name     string
		patterns core.UsagePatterns
		want     string
	}{
		{
			name:     "economical",
			patterns: core.UsagePatterns{Interactions: 6, TotalExpenses: core.Money{Cents: 40_000}},
			want:     ProfileEconomical,
		},
		{
			name: "impulsive",
			patterns: core.UsagePatterns{
				Interactions:  3,
				TotalExpenses: core.Money{Cents: 200_000},
				TopCategories: map[string]int{"Compras": 1, "Lazer": 1, "Alimentação": 1, "Transporte": 1},
			},
			want: ProfileImpulsive,
		},
		{
			name:     "cautious",
			patterns: core.UsagePatterns{Interactions: 7, TotalExpenses: core.Money{Cents: 80_000}},
			want:     ProfileCautious,
		},
		{
			name:     "neutral",
			patterns: core.UsagePatterns{Interactions: 2, TotalExpenses: core.Money{Cents: 200_000}},
			want:     ProfileNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferProfile(tt.patterns); got != tt.want {
				t.Errorf("InferProfile = %q, want %q", got, tt.want)
			}
		})
	}
}
