package model

import (
	"fmt"
	"time"
)

// VehicleVoltageV is the fixed DC voltage assumed when converting a requested
// cable current into power.
const VehicleVoltageV = 800.0

// PowerFromCurrent converts a requested cable current in amps into the power
// requested by a vehicle at the fixed 800 V charging voltage.
func PowerFromCurrent(amps float64) float64 {
	if amps <= 0 {
		return 0
	}
	return VehicleVoltageV * amps / 1000.0
}

// DemandProfile is an ordered sequence of per-step, per-charger requested
// vehicle power in kW, covering the simulated horizon.
type DemandProfile struct {
	Start time.Time
	// Steps holds one row per timestep; each row has one requested power
	// value per charger, aligned with ScenarioConfig.Chargers.
	Steps [][]float64
}

// Len returns the number of timesteps in the profile.
func (p DemandProfile) Len() int { return len(p.Steps) }

// Validate checks that every row matches the charger count and that no
// requested power is negative.
func (p DemandProfile) Validate(chargers int) error {
	for i, row := range p.Steps {
		if len(row) != chargers {
			return fmt.Errorf("demand step %d has %d values, want %d chargers", i, len(row), chargers)
		}
		for j, kw := range row {
			if kw < 0 {
				return fmt.Errorf("demand step %d charger %d is negative: %v", i, j, kw)
			}
		}
	}
	return nil
}

// FromUtilisation builds a profile from a site-level utilisation envelope in
// [0,1] applied to each charger's PCS ceiling. The envelope is clipped to
// [0,1] and padded or truncated to exactly steps rows; no implicit resampling
// is performed.
func FromUtilisation(start time.Time, util []float64, steps int, chargers []Charger) DemandProfile {
	rows := make([][]float64, steps)
	for i := 0; i < steps; i++ {
		u := 0.0
		if i < len(util) {
			u = util[i]
		}
		if u < 0 {
			u = 0
		}
		if u > 1 {
			u = 1
		}
		row := make([]float64, len(chargers))
		for j, ch := range chargers {
			row[j] = u * ch.PCSLimitKW
		}
		rows[i] = row
	}
	return DemandProfile{Start: start, Steps: rows}
}

// TotalRequestedKW sums the requested power across chargers for one step row.
func TotalRequestedKW(row []float64) float64 {
	total := 0.0
	for _, kw := range row {
		total += kw
	}
	return total
}
