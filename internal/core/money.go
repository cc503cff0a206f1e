// Package core holds the domain value types shared by the message pipeline,
// the session layer and the ledger.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in cents. Calculations stay in cents; floats appear
// only at the presentation edge.
type Money struct {
	Cents int64
}

// ParseAmountCents converts a decimal token to cents. It accepts dot and
// comma as decimal separator and performs half-up rounding on the third
// decimal digit. Signs are rejected; zero is a valid amount.
//
//	ParseAmountCents("12.34") -> 1234
//	ParseAmountCents("12,5")  -> 1250
//	ParseAmountCents("12.346") -> 1235
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return iv*100 + frac, nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Reais returns the value in reais as a float64, for display only.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// BRL renders the amount as Brazilian currency, e.g. "R$ 45,00".
func (m Money) BRL() string {
	whole := m.Cents / 100
	frac := m.Cents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("R$ %d,%02d", whole, frac)
}
