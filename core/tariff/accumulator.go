// Package tariff converts a grid-draw time series into cost under a
// time-of-use schedule with a demand charge billed on the window peak.
package tariff

import (
	"time"

	"github.com/kilianp07/sitesim/core/model"
)

// Accumulator consumes grid-draw samples in step order and tracks the energy
// cost, the per-window demand-charge peak and the cumulative total. The peak
// is a running maximum, never an average: a single spike sets the whole
// window's demand charge. The zero value is not usable; use New.
type Accumulator struct {
	schedule model.TariffSchedule

	energyCost float64
	demandCost float64

	windowKey  string
	windowPeak float64
}

// New returns an accumulator for the given schedule.
func New(schedule model.TariffSchedule) *Accumulator {
	return &Accumulator{schedule: schedule}
}

// Add records the grid draw of one step. Non-positive durations and negative
// draws contribute nothing; they are guarded here rather than failing the run.
func (a *Accumulator) Add(t time.Time, gridKW, dtHours float64) {
	if gridKW < 0 {
		gridKW = 0
	}
	if dtHours > 0 {
		a.energyCost += gridKW * dtHours * a.schedule.RateAt(t)
	}

	key := a.schedule.WindowKey(t)
	if key != a.windowKey {
		a.commitWindow()
		a.windowKey = key
	}
	if gridKW > a.windowPeak {
		// The demand charge grows monotonically with the running peak, so
		// cumulative cost never decreases step over step.
		a.demandCost += (gridKW - a.windowPeak) * a.schedule.DemandChargePerKW
		a.windowPeak = gridKW
	}
}

// PeakToDate returns the running peak of the current billing window. Grid
// draw at or below this value cannot increase the demand charge.
func (a *Accumulator) PeakToDate() float64 { return a.windowPeak }

// commitWindow seals the current window. Its charge is already folded into
// demandCost incrementally; only the peak resets.
func (a *Accumulator) commitWindow() {
	a.windowPeak = 0
}

// Costs returns the accumulated breakdown. It may be called at any step
// boundary; the totals are monotonically non-decreasing.
func (a *Accumulator) Costs() model.CostBreakdown {
	return model.CostBreakdown{
		EnergyCost: a.energyCost,
		DemandCost: a.demandCost,
		TotalCost:  a.energyCost + a.demandCost,
	}
}
