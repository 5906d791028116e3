package model

import (
	"fmt"
)

// Topology identifies where the site battery sits relative to the chargers.
type Topology int

const (
	// GridOnly has no battery: grid -> charger PCS -> vehicles.
	GridOnly Topology = iota
	// ACCoupledBESS places the battery behind the site meter, on the AC side.
	// Battery flows go through its own inverter and cannot bypass charger PCS.
	ACCoupledBESS
	// DCCoupledBESS places the battery behind the chargers, on the DC side,
	// sharing charger PCS capacity with vehicle delivery.
	DCCoupledBESS
)

// String returns the topology name used in configuration files.
func (t Topology) String() string {
	switch t {
	case GridOnly:
		return "grid_only"
	case ACCoupledBESS:
		return "ac_coupled"
	case DCCoupledBESS:
		return "dc_coupled"
	default:
		return "unknown"
	}
}

// ParseTopology converts a configuration string into a Topology.
func ParseTopology(s string) (Topology, error) {
	switch s {
	case "grid_only":
		return GridOnly, nil
	case "ac_coupled":
		return ACCoupledBESS, nil
	case "dc_coupled":
		return DCCoupledBESS, nil
	default:
		return GridOnly, fmt.Errorf("unknown topology: %q", s)
	}
}

// DCDCModuleKW is the locked rating of the DC-DC conversion stage used to
// grid-charge a DC-coupled battery.
const DCDCModuleKW = 100.0

// DefaultTimestepHours is the canonical simulation resolution (15 minutes).
const DefaultTimestepHours = 0.25

// Charger describes one charging position and its power-conversion ceiling.
type Charger struct {
	PCSLimitKW float64 `json:"pcs_limit_kw"`
}

// UniformChargers returns n chargers sharing the same PCS ceiling.
func UniformChargers(n int, pcsKW float64) []Charger {
	chargers := make([]Charger, n)
	for i := range chargers {
		chargers[i] = Charger{PCSLimitKW: pcsKW}
	}
	return chargers
}

// BatterySpec describes the co-located storage unit. The power rating is a
// symmetric charge/discharge ceiling. InverterKW only applies to AC-coupled
// sites; the DC-DC stage of DC-coupled sites is fixed at DCDCModuleKW.
type BatterySpec struct {
	PowerKW       float64 `json:"power_kw"`
	EnergyKWh     float64 `json:"energy_kwh"`
	InitialSoCKWh float64 `json:"initial_soc_kwh"`
	InverterKW    float64 `json:"inverter_kw"`
}

// ScenarioConfig is the static description of a site. It is constructed once,
// validated before the first step and never mutated during a run.
type ScenarioConfig struct {
	Name              string         `json:"name"`
	TimestepHours     float64        `json:"timestep_hours"`
	GridConnectionKW  float64        `json:"grid_connection_kw"`
	Chargers          []Charger      `json:"chargers"`
	Topology          Topology       `json:"-"`
	Battery           *BatterySpec   `json:"battery"`
	AllowGridCharging bool           `json:"allow_grid_charging"`
	Tariff            TariffSchedule `json:"tariff"`
}

// TotalPCSKW returns the summed PCS ceiling across all chargers.
func (c ScenarioConfig) TotalPCSKW() float64 {
	total := 0.0
	for _, ch := range c.Chargers {
		total += ch.PCSLimitKW
	}
	return total
}

// Normalized returns a copy with defaults applied: a zero timestep becomes
// DefaultTimestepHours. Negative values are left for Validate to reject.
func (c ScenarioConfig) Normalized() ScenarioConfig {
	if c.TimestepHours == 0 {
		c.TimestepHours = DefaultTimestepHours
	}
	return c
}

// Validate rejects misconfigured scenarios before any simulation step runs.
// Errors name the offending field.
func (c ScenarioConfig) Validate() error {
	if c.TimestepHours <= 0 {
		return fmt.Errorf("timestep_hours must be positive, got %v", c.TimestepHours)
	}
	if c.GridConnectionKW <= 0 {
		return fmt.Errorf("grid_connection_kw must be positive, got %v", c.GridConnectionKW)
	}
	if len(c.Chargers) == 0 {
		return fmt.Errorf("chargers: at least one charger is required")
	}
	for i, ch := range c.Chargers {
		if ch.PCSLimitKW <= 0 {
			return fmt.Errorf("chargers[%d].pcs_limit_kw must be positive, got %v", i, ch.PCSLimitKW)
		}
	}
	if err := c.Tariff.Validate(); err != nil {
		return fmt.Errorf("tariff: %w", err)
	}
	switch c.Topology {
	case GridOnly:
		if c.Battery != nil {
			return fmt.Errorf("battery must be absent for grid_only topology")
		}
	case ACCoupledBESS, DCCoupledBESS:
		if c.Battery == nil {
			return fmt.Errorf("battery is required for %s topology", c.Topology)
		}
		if err := c.validateBattery(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("topology: unknown variant %d", int(c.Topology))
	}
	return nil
}

func (c ScenarioConfig) validateBattery() error {
	b := c.Battery
	if b.PowerKW <= 0 {
		return fmt.Errorf("battery.power_kw must be positive, got %v", b.PowerKW)
	}
	if b.EnergyKWh <= 0 {
		return fmt.Errorf("battery.energy_kwh must be positive, got %v", b.EnergyKWh)
	}
	if b.InitialSoCKWh < 0 || b.InitialSoCKWh > b.EnergyKWh {
		return fmt.Errorf("battery.initial_soc_kwh must be within [0, %v], got %v", b.EnergyKWh, b.InitialSoCKWh)
	}
	switch c.Topology {
	case ACCoupledBESS:
		if b.InverterKW <= 0 {
			return fmt.Errorf("battery.inverter_kw must be positive for ac_coupled topology")
		}
		if b.PowerKW > b.InverterKW {
			return fmt.Errorf("battery.power_kw %v exceeds inverter_kw %v", b.PowerKW, b.InverterKW)
		}
	case DCCoupledBESS:
		if b.PowerKW > c.TotalPCSKW() {
			return fmt.Errorf("battery.power_kw %v exceeds total PCS capacity %v", b.PowerKW, c.TotalPCSKW())
		}
	}
	return nil
}
