package nlp

import (
	"regexp"
	"strings"
	"time"
)

// Intent is the single classification assigned to an inbound message.
type Intent int

const (
	IntentFreeChat Intent = iota
	IntentConfirm
	IntentReject
	IntentReportRequest
	IntentReportFollowup
	IntentExpense
)

func (i Intent) String() string {
	switch i {
	case IntentConfirm:
		return "confirm"
	case IntentReject:
		return "reject"
	case IntentReportRequest:
		return "report_request"
	case IntentReportFollowup:
		return "report_followup"
	case IntentExpense:
		return "expense_declaration"
	default:
		return "free_chat"
	}
}

var (
	confirmVocab = map[string]struct{}{
		"sim": {}, "ok": {}, "confirmar": {}, "pode": {}, "isso": {},
	}
	rejectVocab = map[string]struct{}{
		"nao": {}, "cancelar": {}, "corrigir": {},
	}
	reportTriggers = []string{
		"relatorio", "diagnostico", "analise", "gastei com",
	}
	followupTriggers = []string{
		"o que voce acha", "oq vc acha", "isso e bom", "isso e ruim",
		"preocupante", "ok", "entendi",
	}
	expenseVerbs = []string{
		"gastei", "paguei", "comprei", "abasteci", "fatura", "cartao",
	}

	hasValueRe = regexp.MustCompile(`\d+([.,]\d+)?`)
)

// ClassifyIntent assigns exactly one intent to a message. The rules form a
// priority cascade, not independent checks: confirmation and rejection are
// tested first because a bare "sim" in preview carries no numeric value or
// expense verb and would otherwise fall through to free chat.
func ClassifyIntent(message string, inPreview, hasReport bool) Intent {
	t := Normalize(message)
	trimmed := strings.TrimSpace(t)

	if inPreview {
		if _, ok := confirmVocab[trimmed]; ok {
			return IntentConfirm
		}
		if _, ok := rejectVocab[trimmed]; ok {
			return IntentReject
		}
	}

	for _, trigger := range reportTriggers {
		if strings.Contains(t, trigger) {
			return IntentReportRequest
		}
	}

	if hasReport {
		for _, trigger := range followupTriggers {
			if strings.Contains(t, trigger) {
				return IntentReportFollowup
			}
		}
	}

	if hasValueRe.MatchString(t) || containsAny(t, expenseVerbs) {
		return IntentExpense
	}

	return IntentFreeChat
}

// MonthInText recognizes an explicit Portuguese month name, used by report
// requests like "relatório de março". When several months are named the
// one mentioned first wins. ok is false when no month is named.
func MonthInText(message string) (time.Month, bool) {
	t := Normalize(message)
	first := -1
	var month time.Month
	for name, m := range ptMonths {
		if idx := strings.Index(t, name); idx >= 0 && (first < 0 || idx < first) {
			first = idx
			month = m
		}
	}
	return month, first >= 0
}
