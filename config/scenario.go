package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/sitesim/core/demand"
	"github.com/kilianp07/sitesim/core/model"
)

// ScenarioSection is the file-shaped site description. Enumerated fields are
// plain strings here and parsed into model types by ToModel.
type ScenarioSection struct {
	Name              string             `json:"name"`
	Topology          string             `json:"topology"`
	TimestepHours     float64            `json:"timestep_hours"`
	GridConnectionKW  float64            `json:"grid_connection_kw"`
	ChargerCount      int                `json:"charger_count"`
	ChargerPCSKW      float64            `json:"charger_pcs_kw"`
	Chargers          []model.Charger    `json:"chargers"`
	Battery           *model.BatterySpec `json:"battery"`
	AllowGridCharging bool               `json:"allow_grid_charging"`
	Tariff            TariffSection      `json:"tariff"`
}

// TariffSection mirrors model.TariffSchedule with a string billing window.
type TariffSection struct {
	Bands             []model.TOUBand `json:"bands"`
	DefaultRatePerKWh float64         `json:"default_rate_per_kwh"`
	DemandChargePerKW float64         `json:"demand_charge_per_kw"`
	BillingWindow     string          `json:"billing_window"`
}

// ToModel converts the section into a validated ScenarioConfig. Chargers may
// be listed individually or described as a uniform fleet via charger_count
// and charger_pcs_kw.
func (s ScenarioSection) ToModel() (model.ScenarioConfig, error) {
	topology, err := model.ParseTopology(s.Topology)
	if err != nil {
		return model.ScenarioConfig{}, err
	}
	window, err := model.ParseBillingWindow(s.Tariff.BillingWindow)
	if err != nil {
		return model.ScenarioConfig{}, err
	}
	chargers := s.Chargers
	if len(chargers) == 0 && s.ChargerCount > 0 {
		chargers = model.UniformChargers(s.ChargerCount, s.ChargerPCSKW)
	}
	cfg := model.ScenarioConfig{
		Name:              s.Name,
		Topology:          topology,
		TimestepHours:     s.TimestepHours,
		GridConnectionKW:  s.GridConnectionKW,
		Chargers:          chargers,
		Battery:           s.Battery,
		AllowGridCharging: s.AllowGridCharging,
		Tariff: model.TariffSchedule{
			Bands:             s.Tariff.Bands,
			DefaultRatePerKWh: s.Tariff.DefaultRatePerKWh,
			DemandChargePerKW: s.Tariff.DemandChargePerKW,
			Window:            window,
		},
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return model.ScenarioConfig{}, err
	}
	return cfg, nil
}

// DemandSection describes the demand profile: either an explicit utilisation
// curve or a synthetic generator.
type DemandSection struct {
	Start       string                  `json:"start"`
	Steps       int                     `json:"steps"`
	Utilisation []float64               `json:"utilisation"`
	Generator   *demand.GeneratorConfig `json:"generator"`
}

// Profile builds the demand profile for the given chargers and timestep.
func (d DemandSection) Profile(chargers []model.Charger, timestepHours float64) (model.DemandProfile, error) {
	start, err := d.startTime()
	if err != nil {
		return model.DemandProfile{}, err
	}
	if len(d.Utilisation) > 0 {
		steps := d.Steps
		if steps == 0 {
			steps = len(d.Utilisation)
		}
		return model.FromUtilisation(start, d.Utilisation, steps, chargers), nil
	}
	if d.Generator == nil {
		return model.DemandProfile{}, fmt.Errorf("demand: either utilisation or generator is required")
	}
	gen := *d.Generator
	if gen.TimestepHours == 0 {
		gen.TimestepHours = timestepHours
	}
	if gen.Steps == 0 {
		gen.Steps = d.Steps
	}
	gen.SetDefaults()
	if err := gen.Validate(); err != nil {
		return model.DemandProfile{}, fmt.Errorf("demand generator: %w", err)
	}
	return gen.Profile(start, chargers), nil
}

func (d DemandSection) startTime() (time.Time, error) {
	if d.Start == "" {
		// Midnight keeps the TOU bands aligned with the step index.
		return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.RFC3339, d.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("demand.start: %w", err)
	}
	return t, nil
}
