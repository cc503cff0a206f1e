// Package reply renders every message the oracle sends back to the user.
// All user-facing text lives here so the services layer stays free of
// presentation concerns.
package reply

import (
	"fmt"
	"sort"
	"strings"

	"oraculo/internal/core"
)

const (
	AskClarify       = "🔮 Minha visão ficou turva… pode me dar mais detalhes?"
	AskConfirm       = "Se minha leitura estiver correta, diga **\"sim\"**."
	Saved            = "📜 As despesas foram seladas no livro financeiro."
	NothingFound     = "🌫️ Não consegui enxergar nenhuma despesa nessa mensagem."
	Aborted          = "🌫️ As palavras se dispersaram… tente novamente com mais clareza."
	Rejected         = "Tudo bem 🙂 Me diga novamente como foi que eu ajusto."
	InsufficientData = "📭 Ainda não há registros suficientes para esse período."
	Failure          = "🌪️ As visões se romperam por um instante…"
)

// Preview lists the drafts awaiting confirmation, one numbered line each.
func Preview(drafts []core.DraftExpense) string {
	var b strings.Builder
	b.WriteString("🧾 Posso registrar assim?\n\n")

	for i, d := range drafts {
		amount := "Valor não informado"
		if d.Amount != nil {
			amount = d.Amount.BRL()
		}
		fmt.Fprintf(&b, "%d) %s — %s — %s\n", i+1, d.Description, amount, d.Category)
	}

	b.WriteString("\n")
	b.WriteString(AskConfirm)
	return b.String()
}

type categoryShare struct {
	name  string
	value core.Money
}

// sortedShares orders categories by amount descending, name ascending on
// ties, so renders are stable.
func sortedShares(byCategory map[string]core.Money) []categoryShare {
	shares := make([]categoryShare, 0, len(byCategory))
	for name, value := range byCategory {
		shares = append(shares, categoryShare{name: name, value: value})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].value.Cents != shares[j].value.Cents {
			return shares[i].value.Cents > shares[j].value.Cents
		}
		return shares[i].name < shares[j].name
	})
	return shares
}

func percent(part, total core.Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return float64(part.Cents) / float64(total.Cents) * 100
}

// Report renders the monthly summary. monthName is empty when the report
// covers the current month.
func Report(r *core.Report, monthName string) string {
	label := "do mês atual"
	if monthName != "" {
		label = monthName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Relatório %s**\n\n", label)
	fmt.Fprintf(&b, "💰 Total gasto: **%s**\n\n", r.Total.BRL())

	for _, s := range sortedShares(r.ByCategory) {
		fmt.Fprintf(&b, "• %s: %s (%.1f%%)\n", s.name, s.value.BRL(), percent(s.value, r.Total))
	}

	b.WriteString("\n🔮 Quer que eu analise isso com mais profundidade?")
	return b.String()
}

// ReportFollowup answers an analytical question about the last report.
func ReportFollowup(r *core.Report) string {
	top, _ := r.TopCategory()

	var b strings.Builder
	b.WriteString("🔮 Observando seus gastos...\n\n")
	fmt.Fprintf(&b, "📌 Você gastou mais em **%s**.\n", top)
	b.WriteString("💭 Isso representa uma parte significativa do seu orçamento.\n\n")
	b.WriteString("Se quiser, posso te ajudar a:\n")
	b.WriteString("• reduzir gastos\n• planejar o próximo mês\n• analisar outra categoria")
	return b.String()
}

// PostReportNudge is the gentler follow-up used when the user keeps
// talking after a report without asking anything analytical.
func PostReportNudge(r *core.Report) string {
	top, amount := r.TopCategory()
	share := percent(amount, r.Total)
	return fmt.Sprintf("🔍 Olhando para esse período, **%s** teve o maior peso (%.1f%%).\n\nQuer conversar sobre isso ou prefere pensar em um pequeno ajuste?", top, share)
}

// DecorateFreeChat layers familiarity and behavioral hints around a free
// conversation reply.
func DecorateFreeChat(base string, profile string, patterns core.UsagePatterns) string {
	reply := base

	switch profile {
	case "economico":
		reply = "💡 Dá pra perceber que você costuma cuidar bem do dinheiro.\n\n" + reply
	case "impulsivo":
		reply = "⚡ Parece que suas decisões são bem rápidas — isso tem seu lado bom.\n\n" + reply
	case "cauteloso":
		reply = "🧘 Você costuma pensar antes de agir, isso ajuda muito.\n\n" + reply
	}

	switch {
	case patterns.Interactions == 1:
		reply = "🔮 Primeira vez por aqui? Fica à vontade.\n\n" + reply
	case patterns.Interactions > 10:
		reply = "😄 Já virou hábito passar por aqui, né?\n\n" + reply
	case patterns.Interactions > 3:
		reply = "🙂 Bom te ver de novo por aqui.\n\n" + reply
	}

	if patterns.Interactions > 5 && len(patterns.TopCategories) > 0 {
		top := topCategoryByCount(patterns.TopCategories)
		reply += fmt.Sprintf("\n\n🔎 Notei que você costuma falar bastante sobre **%s**.", top)
	}

	return reply
}

func topCategoryByCount(counts map[string]int) string {
	best := ""
	bestCount := -1
	for name, n := range counts {
		if n > bestCount || (n == bestCount && name < best) {
			best = name
			bestCount = n
		}
	}
	return best
}
