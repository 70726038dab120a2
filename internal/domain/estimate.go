package domain

import (
	"fmt"
	"math"
)

// FinancialEstimate compares the projected cost of a disaster in a zone with
// the cost of preventing it.
type FinancialEstimate struct {
	ResidenceCount int     `json:"residence_count"`
	RiskScore      float64 `json:"risk_score"`
	Population     int     `json:"population"`

	ReconstructionCost float64 `json:"reconstruction_cost"`
	HumanCost          float64 `json:"human_cost"`
	InfrastructureCost float64 `json:"infrastructure_cost"`
	IndirectLosses     float64 `json:"indirect_losses"`
	TotalDisasterCost  float64 `json:"total_disaster_cost"`

	DrainageCost        float64 `json:"drainage_cost"`
	ContainmentCost     float64 `json:"containment_cost"`
	GreenCost           float64 `json:"green_cost"`
	MonitoringCost      float64 `json:"monitoring_cost"`
	TotalPreventionCost float64 `json:"total_prevention_cost"`

	Savings         float64 `json:"savings"`
	ROI             float64 `json:"roi"`              // percent
	InvestmentRatio float64 `json:"investment_ratio"` // disaster cost per R$ 1 of prevention
}

// ComputeEstimate derives the disaster and prevention costs for a zone from
// its residence count and risk score. Negative residence counts are treated as
// 0 and the score is clamped into [0,100]. The result depends only on the
// inputs.
func ComputeEstimate(residences int, riskScore float64) FinancialEstimate {
	if residences < 0 {
		residences = 0
	}
	riskScore = clampScore(riskScore)

	r := float64(residences)
	population := int(math.Round(r * PeoplePerResidence))
	p := float64(population)
	riskFactor := riskScore / MaxRiskScore

	e := FinancialEstimate{
		ResidenceCount: residences,
		RiskScore:      riskScore,
		Population:     population,
	}

	e.ReconstructionCost = r * AvgHomeAreaM2 * ConstructionCostM2 * riskFactor
	e.HumanCost = p * CostPerPersonAffect * riskFactor
	e.InfrastructureCost = e.ReconstructionCost * InfrastructureShare
	e.IndirectLosses = (e.ReconstructionCost + e.HumanCost + e.InfrastructureCost) * IndirectLossShare
	e.TotalDisasterCost = e.ReconstructionCost + e.HumanCost + e.InfrastructureCost + e.IndirectLosses

	e.DrainageCost = r * DrainageMetersPerHome * DrainageCostPerMeter * riskFactor
	e.ContainmentCost = r * ContainmentM2PerHome * ContainmentCostPerM2 * riskFactor
	e.GreenCost = r * GreenM2PerHome * GreenCostPerM2 * riskFactor
	e.MonitoringCost = MonitoringBaseCost + p*MonitoringCostPerPerson*riskFactor
	e.TotalPreventionCost = e.DrainageCost + e.ContainmentCost + e.GreenCost + e.MonitoringCost

	e.Savings = e.TotalDisasterCost - e.TotalPreventionCost
	if e.TotalPreventionCost > 0 {
		e.ROI = e.Savings / e.TotalPreventionCost * 100
		e.InvestmentRatio = e.TotalDisasterCost / e.TotalPreventionCost
	}
	return e
}

func clampScore(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > MaxRiskScore:
		return MaxRiskScore
	default:
		return score
	}
}

// FormatCurrency renders an amount in compact BRL notation: R$ 1.2M, R$ 120K, R$ 500.
func FormatCurrency(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("R$ %.1fM", v/1_000_000)
	case v >= 1000:
		return fmt.Sprintf("R$ %.0fK", v/1000)
	default:
		return fmt.Sprintf("R$ %.0f", v)
	}
}

// FormatROI renders ROI as a whole percentage, e.g. "1100%".
func FormatROI(roi float64) string {
	return fmt.Sprintf("%.0f%%", roi)
}
