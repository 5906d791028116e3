// Package battery implements the storage feasibility model: pure arithmetic
// over (SoC, requested power, timestep, ratings) with no hidden state.
package battery

// Model bundles the immutable ratings of a storage unit. The power rating is
// a symmetric charge/discharge ceiling. Topology-specific conversion stages
// (AC inverter, DC-DC module, PCS headroom) are passed per call as extra
// ceilings so the model stays a pure function of its inputs.
type Model struct {
	CapacityKWh float64
	PowerKW     float64
}

// MaxDischarge returns the highest feasible discharge power in kW given the
// current SoC, the timestep and any additional conversion-stage ceilings.
func (m Model) MaxDischarge(socKWh, dtHours float64, extraCeilingsKW ...float64) float64 {
	if dtHours <= 0 || socKWh <= 0 {
		return 0
	}
	p := min(m.PowerKW, socKWh/dtHours)
	return clipCeilings(p, extraCeilingsKW)
}

// MaxCharge returns the highest feasible charge power in kW given the current
// SoC, the timestep and any additional conversion-stage ceilings.
func (m Model) MaxCharge(socKWh, dtHours float64, extraCeilingsKW ...float64) float64 {
	if dtHours <= 0 {
		return 0
	}
	headroom := m.CapacityKWh - socKWh
	if headroom <= 0 {
		return 0
	}
	p := min(m.PowerKW, headroom/dtHours)
	return clipCeilings(p, extraCeilingsKW)
}

// Step applies a signed power request for one timestep. Positive means
// discharge towards the load, negative means charge. The request is reduced
// to the feasible maximum, never exceeded and never rejected outright when a
// partial fill is feasible. It returns the applied power and the new SoC,
// which always stays within [0, CapacityKWh].
func (m Model) Step(socKWh, requestKW, dtHours float64, extraCeilingsKW ...float64) (appliedKW, newSoCKWh float64) {
	if dtHours <= 0 || requestKW == 0 {
		return 0, clamp(socKWh, 0, m.CapacityKWh)
	}
	if requestKW > 0 {
		appliedKW = min(requestKW, m.MaxDischarge(socKWh, dtHours, extraCeilingsKW...))
		newSoCKWh = socKWh - appliedKW*dtHours
	} else {
		charge := min(-requestKW, m.MaxCharge(socKWh, dtHours, extraCeilingsKW...))
		appliedKW = -charge
		newSoCKWh = socKWh + charge*dtHours
	}
	return appliedKW, clamp(newSoCKWh, 0, m.CapacityKWh)
}

func clipCeilings(p float64, ceilings []float64) float64 {
	for _, c := range ceilings {
		if c < 0 {
			c = 0
		}
		if p > c {
			p = c
		}
	}
	if p < 0 {
		return 0
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
