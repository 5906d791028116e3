package battery

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMaxDischarge(t *testing.T) {
	m := Model{CapacityKWh: 200, PowerKW: 100}

	if got := m.MaxDischarge(200, 0.25); got != 100 {
		t.Fatalf("full battery: got %v, want power rating 100", got)
	}
	// Only 10 kWh left: 10 / 0.25 h = 40 kW is the energy-limited ceiling.
	if got := m.MaxDischarge(10, 0.25); got != 40 {
		t.Fatalf("near-empty: got %v, want 40", got)
	}
	if got := m.MaxDischarge(0, 0.25); got != 0 {
		t.Fatalf("empty: got %v, want 0", got)
	}
	if got := m.MaxDischarge(200, 0.25, 60); got != 60 {
		t.Fatalf("inverter ceiling: got %v, want 60", got)
	}
	if got := m.MaxDischarge(200, 0); got != 0 {
		t.Fatalf("zero timestep: got %v, want 0", got)
	}
}

func TestMaxCharge(t *testing.T) {
	m := Model{CapacityKWh: 200, PowerKW: 100}

	if got := m.MaxCharge(0, 0.25); got != 100 {
		t.Fatalf("empty battery: got %v, want power rating 100", got)
	}
	// 20 kWh of headroom: 20 / 0.25 h = 80 kW.
	if got := m.MaxCharge(180, 0.25); got != 80 {
		t.Fatalf("near-full: got %v, want 80", got)
	}
	if got := m.MaxCharge(200, 0.25); got != 0 {
		t.Fatalf("full: got %v, want 0", got)
	}
	if got := m.MaxCharge(0, 0.25, 50); got != 50 {
		t.Fatalf("extra ceiling: got %v, want 50", got)
	}
}

func TestStepDischarge(t *testing.T) {
	m := Model{CapacityKWh: 200, PowerKW: 100}

	applied, soc := m.Step(200, 60, 0.25)
	if !approx(applied, 60) || !approx(soc, 185) {
		t.Fatalf("got applied %v soc %v, want 60 / 185", applied, soc)
	}

	// Request above the rating: partial fill at the feasible maximum.
	applied, soc = m.Step(200, 500, 0.25)
	if !approx(applied, 100) || !approx(soc, 175) {
		t.Fatalf("got applied %v soc %v, want 100 / 175", applied, soc)
	}

	// Request that would overdraw the remaining energy drains to exactly zero.
	applied, soc = m.Step(5, 100, 0.25)
	if !approx(applied, 20) || !approx(soc, 0) {
		t.Fatalf("got applied %v soc %v, want 20 / 0", applied, soc)
	}
}

func TestStepCharge(t *testing.T) {
	m := Model{CapacityKWh: 200, PowerKW: 100}

	applied, soc := m.Step(100, -80, 0.25)
	if !approx(applied, -80) || !approx(soc, 120) {
		t.Fatalf("got applied %v soc %v, want -80 / 120", applied, soc)
	}

	// Charging into a nearly full battery stops at capacity.
	applied, soc = m.Step(195, -100, 0.25)
	if !approx(applied, -20) || !approx(soc, 200) {
		t.Fatalf("got applied %v soc %v, want -20 / 200", applied, soc)
	}

	// DC-DC module ceiling caps the charge below the power rating.
	applied, _ = m.Step(0, -100, 0.25, 50)
	if !approx(applied, -50) {
		t.Fatalf("got applied %v, want -50", applied)
	}
}

func TestStepSoCStaysBounded(t *testing.T) {
	m := Model{CapacityKWh: 50, PowerKW: 100}
	soc := 25.0
	requests := []float64{200, -200, 90, -90, 10, -300, 300}
	for i, req := range requests {
		var applied float64
		applied, soc = m.Step(soc, req, 0.25)
		if soc < 0 || soc > m.CapacityKWh {
			t.Fatalf("step %d: SoC %v escaped [0, %v]", i, soc, m.CapacityKWh)
		}
		if math.Abs(applied) > m.PowerKW {
			t.Fatalf("step %d: applied %v exceeds rating %v", i, applied, m.PowerKW)
		}
	}
}
