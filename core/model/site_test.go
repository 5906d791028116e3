package model

import (
	"strings"
	"testing"
)

func validScenario(topology Topology) ScenarioConfig {
	cfg := ScenarioConfig{
		Name:             "test",
		TimestepHours:    0.25,
		GridConnectionKW: 300,
		Chargers:         UniformChargers(2, 150),
		Topology:         topology,
		Tariff:           DefaultTOU(0.12, 0.20, 0.35, 10),
	}
	if topology != GridOnly {
		cfg.Battery = &BatterySpec{PowerKW: 100, EnergyKWh: 200, InitialSoCKWh: 200, InverterKW: 120}
	}
	return cfg
}

func TestScenarioValidate(t *testing.T) {
	for _, topo := range []Topology{GridOnly, ACCoupledBESS, DCCoupledBESS} {
		if err := validScenario(topo).Validate(); err != nil {
			t.Fatalf("%s: unexpected error: %v", topo, err)
		}
	}
}

func TestScenarioValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ScenarioConfig)
		want   string
	}{
		{"zero grid", func(c *ScenarioConfig) { c.GridConnectionKW = 0 }, "grid_connection_kw"},
		{"negative grid", func(c *ScenarioConfig) { c.GridConnectionKW = -10 }, "grid_connection_kw"},
		{"no chargers", func(c *ScenarioConfig) { c.Chargers = nil }, "chargers"},
		{"zero pcs", func(c *ScenarioConfig) { c.Chargers[1].PCSLimitKW = 0 }, "chargers[1]"},
		{"negative timestep", func(c *ScenarioConfig) { c.TimestepHours = -1 }, "timestep_hours"},
		{"battery on grid_only", func(c *ScenarioConfig) { c.Battery = &BatterySpec{} }, "battery"},
		{"negative rate", func(c *ScenarioConfig) { c.Tariff.DefaultRatePerKWh = -1 }, "tariff"},
	}
	for _, tc := range cases {
		cfg := validScenario(GridOnly)
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: error %q does not name %q", tc.name, err, tc.want)
		}
	}
}

func TestScenarioValidateBattery(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ScenarioConfig)
	}{
		{"missing battery", func(c *ScenarioConfig) { c.Battery = nil }},
		{"zero power", func(c *ScenarioConfig) { c.Battery.PowerKW = 0 }},
		{"zero energy", func(c *ScenarioConfig) { c.Battery.EnergyKWh = 0 }},
		{"soc above capacity", func(c *ScenarioConfig) { c.Battery.InitialSoCKWh = 500 }},
		{"negative soc", func(c *ScenarioConfig) { c.Battery.InitialSoCKWh = -1 }},
		{"missing inverter", func(c *ScenarioConfig) { c.Battery.InverterKW = 0 }},
		{"power above inverter", func(c *ScenarioConfig) { c.Battery.PowerKW = 150; c.Battery.InverterKW = 120 }},
	}
	for _, tc := range cases {
		cfg := validScenario(ACCoupledBESS)
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}

	dc := validScenario(DCCoupledBESS)
	dc.Battery.PowerKW = dc.TotalPCSKW() + 1
	if err := dc.Validate(); err == nil {
		t.Errorf("dc battery power above PCS sum: expected error")
	}
}

func TestNormalizedAppliesTimestepDefault(t *testing.T) {
	cfg := validScenario(GridOnly)
	cfg.TimestepHours = 0
	if got := cfg.Normalized().TimestepHours; got != DefaultTimestepHours {
		t.Fatalf("expected %v got %v", DefaultTimestepHours, got)
	}
}

func TestParseTopology(t *testing.T) {
	for _, topo := range []Topology{GridOnly, ACCoupledBESS, DCCoupledBESS} {
		got, err := ParseTopology(topo.String())
		if err != nil || got != topo {
			t.Fatalf("round trip %s: got %v err %v", topo, got, err)
		}
	}
	if _, err := ParseTopology("hybrid"); err == nil {
		t.Fatalf("expected error for unknown topology")
	}
}
