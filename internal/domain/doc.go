// Package domain models municipal risk zones, residence-count extraction, and
// the disaster vs. prevention cost projections shown to city planners.
//
// # Risk Zones
//
// A zone carries a risk score in [0,100]. The level shown to users is derived
// from the score:
//
//	score ≥ 70  CRÍTICO
//	score ≥ 50  ALTO
//	score ≥ 30  MODERADO
//	otherwise   BAIXO
//
// # Residence Counts
//
// Residence counts come from free-text descriptions produced by an image
// analysis model (Portuguese prose, e.g. "TOTAL: 23 residências"). The count
// is pulled out by an ordered list of regular expressions; see
// [ExtractResidenceCount]. The extraction is best-effort: when the text holds
// unrelated numbers ahead of the count (addresses, percentages) the bare-number
// fallback can pick the wrong one. Absence of a number is a 0 estimate, never
// an error.
//
// Confidence is heuristic, not measured: 0.85 when a count was found, 0.5
// otherwise. See [ConfidenceFor].
//
// When several sources are available for a zone, [ResolveResidences] prefers
// the automatic satellite analysis, then the photo batch, then the catalog's
// registered property count.
//
// # Cost Model
//
// All amounts are in BRL. The risk factor is score/100 and scales every
// variable cost linearly.
//
// Disaster costs:
//
//	reconstruction  residences × 80 m² × R$ 1.500/m² × riskFactor
//	human           population × R$ 15.000 × riskFactor
//	infrastructure  reconstruction × 0.3
//	indirect        (reconstruction + human + infrastructure) × 0.2
//
// Prevention costs:
//
//	drainage        residences × 50 m × R$ 300/m × riskFactor
//	containment     residences × 30 m² × R$ 200/m² × riskFactor
//	green           residences × 20 m² × R$ 50/m² × riskFactor
//	monitoring      R$ 50.000 + population × R$ 100 × riskFactor
//
// Population is round(residences × 3.5). ROI and the investment ratio are 0
// when the prevention total is 0. See [ComputeEstimate].
package domain
