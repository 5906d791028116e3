package tariff

import (
	"math"
	"testing"
	"time"

	"github.com/kilianp07/sitesim/core/model"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEnergyCostFollowsTOUBands(t *testing.T) {
	acc := New(model.DefaultTOU(0.10, 0.20, 0.35, 0))
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	acc.Add(day.Add(3*time.Hour), 100, 1)  // off-peak
	acc.Add(day.Add(12*time.Hour), 100, 1) // shoulder
	acc.Add(day.Add(18*time.Hour), 100, 1) // peak

	costs := acc.Costs()
	if !approx(costs.EnergyCost, 10+20+35) {
		t.Fatalf("energy cost %v, want 65", costs.EnergyCost)
	}
	if costs.DemandCost != 0 {
		t.Fatalf("demand cost %v, want 0 without a demand charge", costs.DemandCost)
	}
}

func TestDemandChargeIsWindowPeakTimesRate(t *testing.T) {
	sched := model.TariffSchedule{DefaultRatePerKWh: 0.2, DemandChargePerKW: 12, Window: model.WindowMonthly}
	acc := New(sched)
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	for i, kw := range []float64{100, 250, 180, 250, 90} {
		acc.Add(day.Add(time.Duration(i)*time.Hour), kw, 0.25)
	}
	if got := acc.PeakToDate(); got != 250 {
		t.Fatalf("peak %v, want 250", got)
	}
	if got := acc.Costs().DemandCost; !approx(got, 250*12) {
		t.Fatalf("demand cost %v, want 3000", got)
	}
}

func TestDemandChargeResetsAcrossWindows(t *testing.T) {
	sched := model.TariffSchedule{DefaultRatePerKWh: 0, DemandChargePerKW: 10, Window: model.WindowDaily}
	acc := New(sched)

	day1 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 16, 10, 0, 0, 0, time.UTC)

	acc.Add(day1, 300, 0.25)
	acc.Add(day2, 50, 0.25)

	if got := acc.PeakToDate(); got != 50 {
		t.Fatalf("new window peak %v, want 50", got)
	}
	// Both windows bill their own peak.
	if got := acc.Costs().DemandCost; !approx(got, 300*10+50*10) {
		t.Fatalf("demand cost %v, want 3500", got)
	}
}

func TestCumulativeCostMonotonic(t *testing.T) {
	acc := New(model.DefaultTOU(0.10, 0.20, 0.35, 12))
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	prev := 0.0
	draws := []float64{120, 300, 40, 0, 280, 310, 5}
	for i, kw := range draws {
		acc.Add(start.Add(time.Duration(i)*15*time.Minute), kw, 0.25)
		total := acc.Costs().TotalCost
		if total < prev {
			t.Fatalf("step %d: total cost %v dropped below %v", i, total, prev)
		}
		prev = total
	}
}

func TestNegativeDrawAndZeroDurationIgnored(t *testing.T) {
	acc := New(model.DefaultTOU(0.10, 0.20, 0.35, 12))
	at := time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC)

	acc.Add(at, -50, 0.25)
	acc.Add(at, 100, 0)

	costs := acc.Costs()
	if costs.EnergyCost != 0 {
		t.Fatalf("energy cost %v, want 0", costs.EnergyCost)
	}
	// A zero-duration sample still counts toward the peak.
	if acc.PeakToDate() != 100 {
		t.Fatalf("peak %v, want 100", acc.PeakToDate())
	}
}
