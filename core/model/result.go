package model

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AllocationRecord captures the resolved power flows of one timestep.
// BatteryKW is signed: positive means discharge towards the load, negative
// means charge from grid or PCS headroom. Flows balance exactly at unity
// efficiency: GridKW + discharge == sum(DeliveredKW) + charge.
type AllocationRecord struct {
	Step        int       `json:"step"`
	Time        time.Time `json:"time"`
	GridKW      float64   `json:"grid_kw"`
	BatteryKW   float64   `json:"battery_kw"`
	DeliveredKW []float64 `json:"delivered_kw"`
	ShortfallKW []float64 `json:"shortfall_kw"`
	SoCKWh      float64   `json:"soc_kwh"`
}

// TotalDeliveredKW sums vehicle delivery across chargers.
func (r AllocationRecord) TotalDeliveredKW() float64 {
	return TotalRequestedKW(r.DeliveredKW)
}

// TotalShortfallKW sums unserved demand across chargers.
func (r AllocationRecord) TotalShortfallKW() float64 {
	return TotalRequestedKW(r.ShortfallKW)
}

// CostBreakdown splits the run cost into its tariff components.
type CostBreakdown struct {
	EnergyCost float64 `json:"energy_cost"`
	DemandCost float64 `json:"demand_cost"`
	TotalCost  float64 `json:"total_cost"`
}

// Names reported in RunSummary.BindingConstraints when a cap was active at
// least once during a run.
const (
	BindingGridCap      = "grid connection cap"
	BindingPCSCap       = "charger PCS cap"
	BindingBatteryPower = "battery power cap"
	BindingBatteryEmpty = "battery energy (SoC) floor"
	BindingInverterCap  = "AC inverter cap"
)

// RunSummary aggregates a completed run for reporting.
type RunSummary struct {
	EnergyDeliveredKWh float64  `json:"energy_delivered_kwh"`
	PeakGridKW         float64  `json:"peak_grid_kw"`
	MeanGridKW         float64  `json:"mean_grid_kw"`
	SatisfactionPct    float64  `json:"satisfaction_pct"`
	BindingConstraints []string `json:"binding_constraints,omitempty"`
}

// SimulationResult is the immutable outcome of one run: the allocation ledger
// in step order, the cost breakdown and summary figures.
type SimulationResult struct {
	Scenario string             `json:"scenario"`
	Records  []AllocationRecord `json:"records"`
	Costs    CostBreakdown      `json:"costs"`
	Summary  RunSummary         `json:"summary"`
}

// Summarize derives the run summary from the ledger. Satisfaction compares
// delivered against requested power over the whole horizon.
func Summarize(records []AllocationRecord, timestepHours float64) RunSummary {
	if len(records) == 0 {
		return RunSummary{SatisfactionPct: 100}
	}
	grid := make([]float64, len(records))
	delivered := 0.0
	requested := 0.0
	for i, r := range records {
		grid[i] = r.GridKW
		d := r.TotalDeliveredKW()
		delivered += d
		requested += d + r.TotalShortfallKW()
	}
	sat := 100.0
	if requested > 0 {
		sat = 100 * delivered / requested
	}
	return RunSummary{
		EnergyDeliveredKWh: delivered * timestepHours,
		PeakGridKW:         floats.Max(grid),
		MeanGridKW:         stat.Mean(grid, nil),
		SatisfactionPct:    sat,
	}
}
