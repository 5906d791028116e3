// Package scenarios runs YAML-described acceptance scenarios through the
// full dispatch stack: engine, event bus, telemetry relay and metric sink.
package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/sitesim/core/model"
)

type BatteryDef struct {
	PowerKW       float64 `yaml:"power_kw"`
	EnergyKWh     float64 `yaml:"energy_kwh"`
	InitialSoCKWh float64 `yaml:"initial_soc_kwh"`
	InverterKW    float64 `yaml:"inverter_kw"`
}

type TariffDef struct {
	Bands             []model.TOUBand `yaml:"bands"`
	DefaultRatePerKWh float64         `yaml:"default_rate_per_kwh"`
	DemandChargePerKW float64         `yaml:"demand_charge_per_kw"`
	BillingWindow     string          `yaml:"billing_window"`
}

type SiteDef struct {
	Topology          string      `yaml:"topology"`
	TimestepHours     float64     `yaml:"timestep_hours"`
	GridConnectionKW  float64     `yaml:"grid_connection_kw"`
	ChargerCount      int         `yaml:"charger_count"`
	ChargerPCSKW      float64     `yaml:"charger_pcs_kw"`
	Battery           *BatteryDef `yaml:"battery"`
	AllowGridCharging bool        `yaml:"allow_grid_charging"`
	Tariff            TariffDef   `yaml:"tariff"`
}

// ExpectedStep pins down the flows of one timestep. Nil fields are not
// checked, so a scenario only asserts what it is about.
type ExpectedStep struct {
	GridKW      *float64  `yaml:"grid_kw"`
	BatteryKW   *float64  `yaml:"battery_kw"`
	SoCKWh      *float64  `yaml:"soc_kwh"`
	DeliveredKW []float64 `yaml:"delivered_kw"`
	ShortfallKW []float64 `yaml:"shortfall_kw"`
}

type Expected struct {
	Steps      []ExpectedStep `yaml:"steps"`
	PeakGridKW *float64       `yaml:"peak_grid_kw"`
	EnergyCost *float64       `yaml:"energy_cost"`
	DemandCost *float64       `yaml:"demand_cost"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Site        SiteDef     `yaml:"site"`
	Demand      [][]float64 `yaml:"demand"`
	Expected    Expected    `yaml:"expected"`
}

// ToModel converts the site definition into a validated scenario config.
func (s Scenario) ToModel() (model.ScenarioConfig, error) {
	topology, err := model.ParseTopology(s.Site.Topology)
	if err != nil {
		return model.ScenarioConfig{}, err
	}
	window, err := model.ParseBillingWindow(s.Site.Tariff.BillingWindow)
	if err != nil {
		return model.ScenarioConfig{}, err
	}
	var battery *model.BatterySpec
	if b := s.Site.Battery; b != nil {
		battery = &model.BatterySpec{
			PowerKW:       b.PowerKW,
			EnergyKWh:     b.EnergyKWh,
			InitialSoCKWh: b.InitialSoCKWh,
			InverterKW:    b.InverterKW,
		}
	}
	cfg := model.ScenarioConfig{
		Name:              s.Name,
		Topology:          topology,
		TimestepHours:     s.Site.TimestepHours,
		GridConnectionKW:  s.Site.GridConnectionKW,
		Chargers:          model.UniformChargers(s.Site.ChargerCount, s.Site.ChargerPCSKW),
		Battery:           battery,
		AllowGridCharging: s.Site.AllowGridCharging,
		Tariff: model.TariffSchedule{
			Bands:             s.Site.Tariff.Bands,
			DefaultRatePerKWh: s.Site.Tariff.DefaultRatePerKWh,
			DemandChargePerKW: s.Site.Tariff.DemandChargePerKW,
			Window:            window,
		},
	}
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return model.ScenarioConfig{}, err
	}
	return cfg, nil
}

// Profile converts the demand rows into a profile starting at midnight, which
// keeps the step index aligned with the time-of-use bands.
func (s Scenario) Profile() model.DemandProfile {
	return model.DemandProfile{
		Start: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Steps: s.Demand,
	}
}

// Load reads one scenario definition from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
