package scenarios

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/sitesim/core/dispatch"
	coremetrics "github.com/kilianp07/sitesim/core/metrics"
	"github.com/kilianp07/sitesim/infra/logger"
	"github.com/kilianp07/sitesim/infra/metrics"
	"github.com/kilianp07/sitesim/infra/mqtt"
	"github.com/kilianp07/sitesim/internal/eventbus"
)

const tolerance = 1e-6

// RunScenario executes one scenario through the assembled stack and checks
// the expectations from its YAML definition.
func RunScenario(t *testing.T, sc *Scenario) {
	cfg, err := sc.ToModel()
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	bus := eventbus.New()
	defer bus.Close()
	pub := mqtt.NewMockPublisher()
	stop := mqtt.Relay(bus, pub, logger.NopLogger{})

	engine := dispatch.NewEngine(logger.NopLogger{}, sink, bus)
	res, err := engine.Run(context.Background(), cfg, sc.Profile())
	if err != nil {
		t.Fatalf("scenario %s: run: %v", sc.Name, err)
	}
	stop()

	if len(res.Records) != len(sc.Demand) {
		t.Fatalf("scenario %s: %d records, want %d", sc.Name, len(res.Records), len(sc.Demand))
	}
	if got := len(pub.Published()); got != len(sc.Demand) {
		t.Errorf("scenario %s: relayed %d telemetry events, want %d", sc.Name, got, len(sc.Demand))
	}

	for i, want := range sc.Expected.Steps {
		if i >= len(res.Records) {
			break
		}
		rec := res.Records[i]
		checkValue(t, sc.Name, i, "grid_kw", want.GridKW, rec.GridKW)
		checkValue(t, sc.Name, i, "battery_kw", want.BatteryKW, rec.BatteryKW)
		checkValue(t, sc.Name, i, "soc_kwh", want.SoCKWh, rec.SoCKWh)
		checkSeries(t, sc.Name, i, "delivered_kw", want.DeliveredKW, rec.DeliveredKW)
		checkSeries(t, sc.Name, i, "shortfall_kw", want.ShortfallKW, rec.ShortfallKW)
	}
	checkValue(t, sc.Name, -1, "peak_grid_kw", sc.Expected.PeakGridKW, res.Summary.PeakGridKW)
	checkValue(t, sc.Name, -1, "energy_cost", sc.Expected.EnergyCost, res.Costs.EnergyCost)
	checkValue(t, sc.Name, -1, "demand_cost", sc.Expected.DemandCost, res.Costs.DemandCost)
}

func checkValue(t *testing.T, scenario string, step int, field string, want *float64, got float64) {
	if want == nil {
		return
	}
	if math.Abs(*want-got) > tolerance {
		t.Errorf("scenario %s step %d: %s = %v, want %v", scenario, step, field, got, *want)
	}
}

func checkSeries(t *testing.T, scenario string, step int, field string, want, got []float64) {
	if want == nil {
		return
	}
	if len(want) != len(got) {
		t.Errorf("scenario %s step %d: %s has %d values, want %d", scenario, step, field, len(got), len(want))
		return
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > tolerance {
			t.Errorf("scenario %s step %d: %s[%d] = %v, want %v", scenario, step, field, i, got[i], want[i])
		}
	}
}
