// Package metrics defines the sink abstraction decoupling the simulation
// engine from concrete observability backends.
package metrics

import (
	"time"

	"github.com/kilianp07/sitesim/core/model"
)

// StepEvent is emitted once per resolved timestep.
type StepEvent struct {
	RunID         string
	Scenario      string
	TimestepHours float64
	Record        model.AllocationRecord
}

// RunEvent is emitted once when a run completes.
type RunEvent struct {
	RunID    string
	Scenario string
	Topology model.Topology
	Steps    int
	Duration time.Duration
	Costs    model.CostBreakdown
	Summary  model.RunSummary
}

// Sink receives simulation events. Implementations must be safe for use from
// concurrent sweep workers.
type Sink interface {
	RecordStep(ev StepEvent) error
	RecordRun(ev RunEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordStep(StepEvent) error { return nil }
func (NopSink) RecordRun(RunEvent) error   { return nil }

// Config selects the enabled sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
