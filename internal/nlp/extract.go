package nlp

import (
	"regexp"
	"strings"

	"oraculo/internal/core"
)

var amountTokenRe = regexp.MustCompile(`^\d+([.,]\d+)?$`)

// Connectives and declaration verbs carry no descriptive value and are
// filtered out of draft descriptions ("gastei 45 no mercado" -> "mercado").
var fillerTokens = map[string]struct{}{
	"gastei": {}, "paguei": {}, "comprei": {}, "abasteci": {}, "gasto": {},
	"de": {}, "do": {}, "da": {}, "no": {}, "na": {}, "em": {}, "com": {},
	"o": {}, "a": {}, "os": {}, "as": {}, "um": {}, "uma": {},
	"pra": {}, "para": {}, "por": {}, "reais": {}, "r$": {},
}

// Item is the outcome of extracting one segment: descriptive text plus an
// optional amount. Amount is nil when the segment carried no numeric token.
type Item struct {
	Description string
	Amount      *core.Money
}

// ExtractItem separates the first numeric token of a segment from the
// descriptive text around it. Tokens before the amount form the description;
// when they are all fillers ("gastei 45 no mercado", "30 de uber") the
// tokens after the amount are used instead. ok is false when no description
// remains; such segments are dropped by the caller.
func ExtractItem(text string) (Item, bool) {
	tokens := strings.Fields(text)

	amountIdx := -1
	var amount *core.Money
	for i, tok := range tokens {
		if amountTokenRe.MatchString(tok) {
			if cents, err := core.ParseAmountCents(tok); err == nil {
				amount = &core.Money{Cents: cents}
				amountIdx = i
			}
			break
		}
	}

	var description string
	if amountIdx < 0 {
		description = describe(tokens)
	} else {
		description = describe(tokens[:amountIdx])
		if description == "" {
			description = describe(tokens[amountIdx+1:])
		}
	}
	if description == "" {
		return Item{}, false
	}
	return Item{Description: description, Amount: amount}, true
}

func describe(tokens []string) string {
	var kept []string
	for _, tok := range tokens {
		if _, filler := fillerTokens[Normalize(tok)]; filler {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}
