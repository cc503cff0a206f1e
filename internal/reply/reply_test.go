package reply

import (
	"strings"
	"testing"
	"time"

	"oraculo/internal/core"
)

func money(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

func TestPreviewNumbersDrafts(t *testing.T) {
	drafts := []core.DraftExpense{
		{Description: "mercado", Amount: money(4500), Category: "Alimentação", Date: time.Now()},
		{Description: "uber", Amount: money(3000), Category: "Transporte", Date: time.Now()},
	}

	got := Preview(drafts)

	if !strings.Contains(got, "1) mercado — R$ 45,00 — Alimentação") {
		t.Errorf("missing first draft line:\n%s", got)
	}
	if !strings.Contains(got, "2) uber — R$ 30,00 — Transporte") {
		t.Errorf("missing second draft line:\n%s", got)
	}
	if !strings.Contains(got, AskConfirm) {
		t.Errorf("preview must ask for confirmation:\n%s", got)
	}
}

func TestPreviewMissingAmount(t *testing.T) {
	drafts := []core.DraftExpense{
		{Description: "presente", Amount: nil, Category: "Outros", Date: time.Now()},
	}

	got := Preview(drafts)
	if !strings.Contains(got, "1) presente — Valor não informado — Outros") {
		t.Errorf("nil amount should render as placeholder:\n%s", got)
	}
}

func TestReportPercentages(t *testing.T) {
	r := &core.Report{
		Total: core.Money{Cents: 7500},
		ByCategory: map[string]core.Money{
			"Alimentação": {Cents: 5000},
			"Transporte":  {Cents: 2500},
		},
	}

	got := Report(r, "")

	if !strings.Contains(got, "Relatório do mês atual") {
		t.Errorf("missing default month label:\n%s", got)
	}
	if !strings.Contains(got, "Total gasto: **R$ 75,00**") {
		t.Errorf("missing total:\n%s", got)
	}
	if !strings.Contains(got, "• Alimentação: R$ 50,00 (66.7%)") {
		t.Errorf("missing Alimentação share:\n%s", got)
	}
	if !strings.Contains(got, "• Transporte: R$ 25,00 (33.3%)") {
		t.Errorf("missing Transporte share:\n%s", got)
	}

	// Larger shares render first.
	if strings.Index(got, "Alimentação") > strings.Index(got, "Transporte") {
		t.Errorf("categories not ordered by amount:\n%s", got)
	}
}

func TestReportNamedMonth(t *testing.T) {
	r := &core.Report{
		Total:      core.Money{Cents: 100},
		ByCategory: map[string]core.Money{"Lazer": {Cents: 100}},
	}

	got := Report(r, "março")
	if !strings.Contains(got, "Relatório março") {
		t.Errorf("missing named month:\n%s", got)
	}
	if !strings.Contains(got, "(100.0%)") {
		t.Errorf("single category should hold 100%%:\n%s", got)
	}
}

func TestReportFollowupNamesTopCategory(t *testing.T) {
	r := &core.Report{
		Total: core.Money{Cents: 7500},
		ByCategory: map[string]core.Money{
			"Alimentação": {Cents: 5000},
			"Transporte":  {Cents: 2500},
		},
	}

	got := ReportFollowup(r)
	if !strings.Contains(got, "**Alimentação**") {
		t.Errorf("followup should highlight top category:\n%s", got)
	}
}

func TestPostReportNudge(t *testing.T) {
	r := &core.Report{
		Total: core.Money{Cents: 7500},
		ByCategory: map[string]core.Money{
			"Alimentação": {Cents: 5000},
			"Transporte":  {Cents: 2500},
		},
	}

	got := PostReportNudge(r)
	if !strings.Contains(got, "**Alimentação**") || !strings.Contains(got, "(66.7%)") {
		t.Errorf("nudge should name top category with share:\n%s", got)
	}
}

func TestDecorateFreeChat(t *testing.T) {
	tests := []struct {
		name     string
		profile  string
		patterns core.UsagePatterns
		contains []string
		excludes []string
	}{
		{
			name:     "first interaction",
			profile:  "neutro",
			patterns: core.UsagePatterns{Interactions: 1},
			contains: []string{"Primeira vez por aqui"},
		},
		{
			name:     "returning user",
			profile:  "neutro",
			patterns: core.UsagePatterns{Interactions: 4},
			contains: []string{"Bom te ver de novo"},
		},
		{
			name:     "habitual user",
			profile:  "neutro",
			patterns: core.UsagePatterns{Interactions: 11},
			contains: []string{"Já virou hábito"},
			excludes: []string{"Bom te ver de novo"},
		},
		{
			name:    "economical profile",
			profile: "economico",
			patterns: core.UsagePatterns{
				Interactions: 6,
				TopCategories: map[string]int{
					"Alimentação": 3,
					"Transporte":  1,
				},
			},
			contains: []string{"cuidar bem do dinheiro", "falar bastante sobre **Alimentação**"},
		},
		{
			name:     "cautious profile",
			profile:  "cauteloso",
			patterns: core.UsagePatterns{Interactions: 7},
			contains: []string{"pensar antes de agir"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecorateFreeChat("resposta base", tt.profile, tt.patterns)
			if !strings.Contains(got, "resposta base") {
				t.Fatalf("base reply lost:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("missing %q:\n%s", want, got)
				}
			}
			for _, not := range tt.excludes {
				if strings.Contains(got, not) {
					t.Errorf("unexpected %q:\n%s", not, got)
				}
			}
		})
	}
}
