package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func TestComputeEstimate_ReferenceZone(t *testing.T) {
	got := ComputeEstimate(10, 80)

	want := FinancialEstimate{
		ResidenceCount:      10,
		RiskScore:           80,
		Population:          35,
		ReconstructionCost:  960000,
		HumanCost:           420000,
		InfrastructureCost:  288000,
		IndirectLosses:      333600,
		TotalDisasterCost:   2001600,
		DrainageCost:        120000,
		ContainmentCost:     48000,
		GreenCost:           8000,
		MonitoringCost:      52800,
		TotalPreventionCost: 228800,
		Savings:             1772800,
		ROI:                 1772800.0 / 228800.0 * 100,
		InvestmentRatio:     2001600.0 / 228800.0,
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Fatalf("estimate mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeEstimate_TotalsAreSums(t *testing.T) {
	for r := 0; r <= 500; r += 7 {
		for s := 0.0; s <= 100; s += 12.5 {
			e := ComputeEstimate(r, s)
			assert.Equal(t, e.ReconstructionCost+e.HumanCost+e.InfrastructureCost+e.IndirectLosses, e.TotalDisasterCost)
			assert.Equal(t, e.DrainageCost+e.ContainmentCost+e.GreenCost+e.MonitoringCost, e.TotalPreventionCost)
			assert.Equal(t, e.TotalDisasterCost-e.TotalPreventionCost, e.Savings)
		}
	}
}

func TestComputeEstimate_NonNegativeCosts(t *testing.T) {
	for r := 0; r <= 300; r += 13 {
		for s := 0.0; s <= 100; s += 5 {
			e := ComputeEstimate(r, s)
			for name, v := range map[string]float64{
				"reconstruction": e.ReconstructionCost,
				"human":          e.HumanCost,
				"infrastructure": e.InfrastructureCost,
				"indirect":       e.IndirectLosses,
				"drainage":       e.DrainageCost,
				"containment":    e.ContainmentCost,
				"green":          e.GreenCost,
				"monitoring":     e.MonitoringCost,
			} {
				assert.GreaterOrEqual(t, v, 0.0, "%s cost for r=%d s=%v", name, r, s)
			}
		}
	}
}

func TestComputeEstimate_ZeroResidences(t *testing.T) {
	for _, s := range []float64{0, 35, 100} {
		e := ComputeEstimate(0, s)
		assert.Zero(t, e.Population)
		assert.Zero(t, e.ReconstructionCost)
		assert.Zero(t, e.HumanCost)
		assert.Zero(t, e.InfrastructureCost)
		assert.Zero(t, e.IndirectLosses)
		assert.Zero(t, e.TotalDisasterCost)
		assert.Zero(t, e.DrainageCost)
		assert.Zero(t, e.ContainmentCost)
		assert.Zero(t, e.GreenCost)
		assert.Equal(t, 50000.0, e.MonitoringCost)
		assert.Equal(t, 50000.0, e.TotalPreventionCost)
	}
}

func TestComputeEstimate_ZeroScore(t *testing.T) {
	e := ComputeEstimate(40, 0)

	assert.Zero(t, e.TotalDisasterCost)
	assert.Equal(t, 50000.0, e.MonitoringCost)
	assert.Equal(t, 50000.0, e.TotalPreventionCost)
	assert.Equal(t, -50000.0, e.Savings)
	assert.Equal(t, -100.0, e.ROI)
	assert.Zero(t, e.InvestmentRatio)
}

func TestComputeEstimate_Monotonic(t *testing.T) {
	for _, s := range []float64{1, 30, 55.5, 100} {
		prev := ComputeEstimate(0, s)
		for r := 1; r <= 400; r++ {
			cur := ComputeEstimate(r, s)
			assert.GreaterOrEqual(t, cur.TotalDisasterCost, prev.TotalDisasterCost, "disaster r=%d s=%v", r, s)
			assert.GreaterOrEqual(t, cur.TotalPreventionCost, prev.TotalPreventionCost, "prevention r=%d s=%v", r, s)
			prev = cur
		}
	}
}

func TestComputeEstimate_Deterministic(t *testing.T) {
	a := ComputeEstimate(47, 87.3)
	b := ComputeEstimate(47, 87.3)
	assert.Equal(t, a, b)
	assert.Equal(t, math.Float64bits(a.ROI), math.Float64bits(b.ROI))
}

func TestComputeEstimate_PopulationRounding(t *testing.T) {
	assert.Equal(t, 4, ComputeEstimate(1, 50).Population)
	assert.Equal(t, 7, ComputeEstimate(2, 50).Population)
	assert.Equal(t, 165, ComputeEstimate(47, 50).Population)
}

func TestComputeEstimate_ClampsInputs(t *testing.T) {
	neg := ComputeEstimate(-5, 50)
	assert.Equal(t, 0, neg.ResidenceCount)
	assert.Equal(t, 50000.0, neg.TotalPreventionCost)

	high := ComputeEstimate(10, 150)
	assert.Equal(t, 100.0, high.RiskScore)
	assert.Equal(t, ComputeEstimate(10, 100), high)

	low := ComputeEstimate(10, -20)
	assert.Zero(t, low.RiskScore)
	assert.Zero(t, low.TotalDisasterCost)

	nan := ComputeEstimate(10, math.NaN())
	assert.Zero(t, nan.RiskScore)
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0"},
		{500, "R$ 500"},
		{999.4, "R$ 999"},
		{1000, "R$ 1K"},
		{120000, "R$ 120K"},
		{2001600, "R$ 2.0M"},
		{15_400_000, "R$ 15.4M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in))
	}
}

func TestFormatROI(t *testing.T) {
	assert.Equal(t, "1100%", FormatROI(1100))
	assert.Equal(t, "-100%", FormatROI(-100))
	assert.Equal(t, "775%", FormatROI(774.8))
}
