package metrics

import (
	"context"
	"math"
	"net/http"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/sitesim/core/metrics"
	"github.com/kilianp07/sitesim/infra/logger"
)

// InfluxSink writes allocation records and run summaries to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a missing backend never blocks a
// simulation run.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordStep writes one allocation record as a measurement point.
func (s *InfluxSink) RecordStep(ev coremetrics.StepEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r := ev.Record
	p := write.NewPointWithMeasurement("allocation").
		AddTag("run_id", ev.RunID).
		AddTag("scenario", ev.Scenario).
		AddField("grid_kw", round3(r.GridKW)).
		AddField("battery_kw", round3(r.BatteryKW)).
		AddField("delivered_kw", round3(r.TotalDeliveredKW())).
		AddField("shortfall_kw", round3(r.TotalShortfallKW())).
		AddField("soc_kwh", round3(r.SoCKWh)).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes the run summary point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_run").
		AddTag("run_id", ev.RunID).
		AddTag("scenario", ev.Scenario).
		AddTag("topology", ev.Topology.String()).
		AddField("steps", ev.Steps).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		AddField("energy_cost", round3(ev.Costs.EnergyCost)).
		AddField("demand_cost", round3(ev.Costs.DemandCost)).
		AddField("total_cost", round3(ev.Costs.TotalCost)).
		AddField("peak_grid_kw", round3(ev.Summary.PeakGridKW)).
		AddField("satisfaction_pct", round3(ev.Summary.SatisfactionPct)).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
