package domain

// Cost model constants. Amounts are BRL.
const (
	PeoplePerResidence = 3.5

	AvgHomeAreaM2       = 80.0    // m² per residence
	ConstructionCostM2  = 1500.0  // R$/m², popular housing
	CostPerPersonAffect = 15000.0 // R$/person: health, displacement, temporary aid
	InfrastructureShare = 0.3     // of reconstruction
	IndirectLossShare   = 0.2     // of direct disaster costs

	DrainageMetersPerHome   = 50.0  // m of micro-drainage per residence
	DrainageCostPerMeter    = 300.0 // R$/m
	ContainmentM2PerHome    = 30.0  // m² of slope containment per residence
	ContainmentCostPerM2    = 200.0 // R$/m²
	GreenM2PerHome          = 20.0  // m² of reforestation per residence
	GreenCostPerM2          = 50.0  // R$/m²
	MonitoringBaseCost      = 50000.0
	MonitoringCostPerPerson = 100.0 // R$/person

	MaxRiskScore = 100.0
)
