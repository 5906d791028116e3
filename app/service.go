// Package app assembles the simulator from its configuration: engine,
// metrics sinks, event bus and telemetry relay.
package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/sitesim/config"
	"github.com/kilianp07/sitesim/core/dispatch"
	coremetrics "github.com/kilianp07/sitesim/core/metrics"
	"github.com/kilianp07/sitesim/core/model"
	"github.com/kilianp07/sitesim/infra/logger"
	"github.com/kilianp07/sitesim/infra/metrics"
	"github.com/kilianp07/sitesim/infra/mqtt"
	"github.com/kilianp07/sitesim/internal/eventbus"
)

// Service owns the wired simulation engine and its observers.
type Service struct {
	Engine *dispatch.Engine

	cfg     *config.Config
	bus     *eventbus.Bus
	log     logger.Logger
	closers []func()
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	bus := eventbus.New()

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = coremetrics.NewMultiSink(sinks...)
	}

	svc := &Service{
		Engine: dispatch.NewEngine(logger.New("engine"), sink, bus),
		cfg:    cfg,
		bus:    bus,
		log:    logg,
	}

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		stop := mqtt.Relay(bus, pub, logg)
		svc.closers = append(svc.closers, stop, pub.Close)
	}
	return svc, nil
}

// Scenario resolves the configured scenario and demand profile.
func (s *Service) Scenario() (model.ScenarioConfig, model.DemandProfile, error) {
	scenario, err := s.cfg.Scenario.ToModel()
	if err != nil {
		return model.ScenarioConfig{}, model.DemandProfile{}, fmt.Errorf("scenario: %w", err)
	}
	profile, err := s.cfg.Demand.Profile(scenario.Chargers, scenario.TimestepHours)
	if err != nil {
		return model.ScenarioConfig{}, model.DemandProfile{}, err
	}
	return scenario, profile, nil
}

// Run executes the configured scenario once.
func (s *Service) Run(ctx context.Context) (*model.SimulationResult, error) {
	if s.cfg.Metrics.PrometheusEnabled && s.cfg.Metrics.PrometheusPort != "" {
		go func() {
			addr := ":" + s.cfg.Metrics.PrometheusPort
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	scenario, profile, err := s.Scenario()
	if err != nil {
		return nil, err
	}
	return s.Engine.Run(ctx, scenario, profile)
}

// Close releases telemetry resources.
func (s *Service) Close() error {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.bus.Close()
	return nil
}
