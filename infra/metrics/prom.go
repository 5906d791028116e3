package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/sitesim/core/metrics"
)

// PromSink records simulation runs in Prometheus metrics.
type PromSink struct {
	steps     *prometheus.CounterVec
	shortfall *prometheus.CounterVec
	peak      *prometheus.GaugeVec
	cost      *prometheus.GaugeVec
	duration  prometheus.Histogram
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The HTTP exposer is started separately via StartPromServer.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitesim_steps_total",
		Help: "Total number of simulated timesteps",
	}, []string{"scenario"})
	shortfall := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sitesim_shortfall_kwh_total",
		Help: "Total unserved vehicle energy in kWh",
	}, []string{"scenario"})
	peak := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sitesim_run_peak_grid_kw",
		Help: "Peak grid draw of the last completed run",
	}, []string{"scenario", "topology"})
	cost := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sitesim_run_cost",
		Help: "Cost of the last completed run by tariff component",
	}, []string{"scenario", "component"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sitesim_run_duration_seconds",
		Help:    "Wall-clock duration of simulation runs",
		Buckets: prometheus.DefBuckets,
	})

	for _, c := range []prometheus.Collector{steps, shortfall, peak, cost, duration} {
		if err := registerOrReuse(reg, c); err != nil {
			return nil, err
		}
	}
	return &PromSink{steps: steps, shortfall: shortfall, peak: peak, cost: cost, duration: duration}, nil
}

func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// RecordStep counts the step and its shortfall energy.
func (s *PromSink) RecordStep(ev coremetrics.StepEvent) error {
	s.steps.WithLabelValues(ev.Scenario).Inc()
	if short := ev.Record.TotalShortfallKW() * ev.TimestepHours; short > 0 {
		s.shortfall.WithLabelValues(ev.Scenario).Add(short)
	}
	return nil
}

// RecordRun publishes run-level gauges and the duration histogram.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.peak.WithLabelValues(ev.Scenario, ev.Topology.String()).Set(ev.Summary.PeakGridKW)
	s.cost.WithLabelValues(ev.Scenario, "energy").Set(ev.Costs.EnergyCost)
	s.cost.WithLabelValues(ev.Scenario, "demand").Set(ev.Costs.DemandCost)
	s.cost.WithLabelValues(ev.Scenario, "total").Set(ev.Costs.TotalCost)
	s.duration.Observe(ev.Duration.Seconds())
	return nil
}
