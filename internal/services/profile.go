package services

import "oraculo/internal/core"

// Behavioral profiles inferred from usage patterns. Thresholds are in
// cents (R$ 500,00 and R$ 1.000,00).
const (
	ProfileEconomical = "economico"
	ProfileImpulsive  = "impulsivo"
	ProfileCautious   = "cauteloso"
	ProfileNeutral    = "neutro"
)

const (
	economicalCeilingCents = 50_000
	cautiousCeilingCents   = 100_000
)

// InferProfile maps usage patterns to a behavioral profile. Rules apply
// in order; the first match wins.
func InferProfile(p core.UsagePatterns) string {
	categories := len(p.TopCategories)

	switch {
	case p.TotalExpenses.Cents < economicalCeilingCents && p.Interactions > 5:
		return ProfileEconomical
	case categories >= 4 && p.Interactions < 5:
		return ProfileImpulsive
	case p.Interactions >= 6 && p.TotalExpenses.Cents < cautiousCeilingCents:
		return ProfileCautious
	default:
		return ProfileNeutral
	}
}
