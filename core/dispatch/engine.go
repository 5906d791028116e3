// Package dispatch implements the power-allocation engine. For every
// timestep it resolves competing claims (vehicle demand, battery charge and
// discharge, grid import ceiling, PCS ceilings) into a feasible flow
// assignment, advances the battery state of charge and streams grid draw into
// the tariff accumulator.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/sitesim/core/battery"
	"github.com/kilianp07/sitesim/core/logger"
	"github.com/kilianp07/sitesim/core/metrics"
	"github.com/kilianp07/sitesim/core/model"
	"github.com/kilianp07/sitesim/core/tariff"
	"github.com/kilianp07/sitesim/internal/eventbus"
)

const capEpsilon = 1e-6

// Engine runs scenario simulations. It owns no per-run state: each Run owns
// its battery SoC and tariff accumulator exclusively, so independent runs may
// execute concurrently on the same Engine.
type Engine struct {
	log  logger.Logger
	sink metrics.Sink
	bus  eventbus.EventBus
}

// NewEngine creates an Engine. The sink and bus are optional; a nil sink
// discards events and a nil bus publishes nothing.
func NewEngine(log logger.Logger, sink metrics.Sink, bus eventbus.EventBus) *Engine {
	if log == nil {
		log = discardLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{log: log, sink: sink, bus: bus}
}

// Run validates the scenario, steps through the demand profile and returns
// the completed result. A run either fully validates and fully completes or
// is rejected before step 1; per-step infeasibility is recorded as shortfall,
// never as an error. The context is checked at each step boundary.
func (e *Engine) Run(ctx context.Context, cfg model.ScenarioConfig, profile model.DemandProfile) (*model.SimulationResult, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if err := profile.Validate(len(cfg.Chargers)); err != nil {
		return nil, fmt.Errorf("demand profile: %w", err)
	}

	runID := uuid.NewString()
	started := time.Now()
	e.log.Infof("run %s: scenario %q topology %s, %d steps", runID, cfg.Name, cfg.Topology, profile.Len())

	r := newRun(cfg)
	records := make([]model.AllocationRecord, 0, profile.Len())
	stepDur := time.Duration(cfg.TimestepHours * float64(time.Hour))

	for i, claims := range profile.Steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run %s cancelled at step %d: %w", runID, i, err)
		}
		t := profile.Start.Add(time.Duration(i) * stepDur)
		rec := r.step(i, t, claims)
		records = append(records, rec)

		ev := metrics.StepEvent{RunID: runID, Scenario: cfg.Name, TimestepHours: cfg.TimestepHours, Record: rec}
		if e.bus != nil {
			e.bus.Publish(ev)
		}
		if err := e.sink.RecordStep(ev); err != nil {
			e.log.Errorf("run %s: step sink: %v", runID, err)
		}
	}

	result := &model.SimulationResult{
		Scenario: cfg.Name,
		Records:  records,
		Costs:    r.acc.Costs(),
		Summary:  r.summary(records, cfg.TimestepHours),
	}
	ev := metrics.RunEvent{
		RunID:    runID,
		Scenario: cfg.Name,
		Topology: cfg.Topology,
		Steps:    len(records),
		Duration: time.Since(started),
		Costs:    result.Costs,
		Summary:  result.Summary,
	}
	if err := e.sink.RecordRun(ev); err != nil {
		e.log.Errorf("run %s: run sink: %v", runID, err)
	}
	e.log.Infof("run %s: done, total cost %.2f (energy %.2f, demand %.2f)",
		runID, result.Costs.TotalCost, result.Costs.EnergyCost, result.Costs.DemandCost)
	return result, nil
}

// run holds the mutable state of one simulation: battery SoC, tariff
// accumulator and binding-constraint flags. It is never shared.
type run struct {
	cfg     model.ScenarioConfig
	batt    battery.Model
	socKWh  float64
	acc     *tariff.Accumulator
	binding map[string]bool
}

func newRun(cfg model.ScenarioConfig) *run {
	r := &run{
		cfg:     cfg,
		acc:     tariff.New(cfg.Tariff),
		binding: make(map[string]bool),
	}
	if cfg.Battery != nil {
		r.batt = battery.Model{CapacityKWh: cfg.Battery.EnergyKWh, PowerKW: cfg.Battery.PowerKW}
		r.socKWh = cfg.Battery.InitialSoCKWh
	}
	return r
}

// step resolves one timestep and forwards the resulting grid draw to the
// tariff accumulator.
func (r *run) step(i int, t time.Time, claims []float64) model.AllocationRecord {
	var rec model.AllocationRecord
	switch r.cfg.Topology {
	case model.ACCoupledBESS:
		rec = r.stepACCoupled(t, claims)
	case model.DCCoupledBESS:
		rec = r.stepDCCoupled(t, claims)
	default:
		rec = r.stepGridOnly(claims)
	}
	rec.Step = i
	rec.Time = t
	rec.SoCKWh = r.socKWh
	r.noteBindings(rec)
	r.acc.Add(t, rec.GridKW, r.cfg.TimestepHours)
	return rec
}

// stepGridOnly: grid -> charger PCS -> vehicles. Delivery per charger is
// min(request, PCS ceiling, remaining grid headroom) in index order.
func (r *run) stepGridOnly(claims []float64) model.AllocationRecord {
	delivered, total := allocate(claims, r.cfg.Chargers, r.cfg.GridConnectionKW)
	return model.AllocationRecord{
		GridKW:      total,
		DeliveredKW: delivered,
		ShortfallKW: shortfalls(claims, delivered, nil),
	}
}

// stepACCoupled: the battery sits behind the site meter. Discharge serves
// demand beyond the grid ceiling and shaves grid draw above the billing
// window's peak-to-date; both flows still traverse charger PCS and are
// bounded by the battery inverter. Off-peak, with grid charging enabled, the
// battery charges from spare import headroom without raising the window peak.
func (r *run) stepACCoupled(t time.Time, claims []float64) model.AllocationRecord {
	spec := r.cfg.Battery
	dt := r.cfg.TimestepHours

	fromGrid, gridKW := allocate(claims, r.cfg.Chargers, r.cfg.GridConnectionKW)

	// Unserved demand deliverable through each charger's remaining PCS headroom.
	extra := make([]float64, len(claims))
	for i := range claims {
		extra[i] = min(claims[i]-fromGrid[i], r.cfg.Chargers[i].PCSLimitKW-fromGrid[i])
	}
	budget := r.batt.MaxDischarge(r.socKWh, dt, spec.InverterKW)
	fromBatt, serveKW := allocateExtra(extra, budget)

	// Peak shaving: substitute battery power for grid draw above the
	// established window peak. Delivery is unchanged, only the source shifts.
	shaveKW := 0.0
	if peak := r.acc.PeakToDate(); peak > 0 && gridKW > peak {
		shaveKW = min(gridKW-peak, budget-serveKW)
		gridKW -= shaveKW
	}

	batteryKW := 0.0
	if discharge := serveKW + shaveKW; discharge > 0 {
		applied, soc := r.batt.Step(r.socKWh, discharge, dt, spec.InverterKW)
		r.socKWh = soc
		batteryKW = applied
	} else if r.cfg.AllowGridCharging && r.cfg.Tariff.OffPeak(t) {
		headroom := r.cfg.GridConnectionKW - gridKW
		if r.cfg.Tariff.DemandChargePerKW > 0 {
			// Never let opportunistic charging set a new demand peak.
			headroom = min(headroom, max(r.acc.PeakToDate()-gridKW, 0))
		}
		applied, soc := r.batt.Step(r.socKWh, -headroom, dt, spec.InverterKW)
		r.socKWh = soc
		batteryKW = applied
		gridKW += -applied
	}

	delivered := make([]float64, len(claims))
	for i := range delivered {
		delivered[i] = fromGrid[i] + fromBatt[i]
	}
	return model.AllocationRecord{
		GridKW:      gridKW,
		BatteryKW:   batteryKW,
		DeliveredKW: delivered,
		ShortfallKW: shortfalls(claims, fromGrid, fromBatt),
	}
}

// stepDCCoupled: the battery sits behind the chargers and competes with
// vehicle delivery for per-charger PCS headroom. With grid charging enabled
// it draws from spare import headroom through the fixed DC-DC module rating,
// strictly after vehicle demand has been served.
func (r *run) stepDCCoupled(t time.Time, claims []float64) model.AllocationRecord {
	dt := r.cfg.TimestepHours

	fromGrid, gridKW := allocate(claims, r.cfg.Chargers, r.cfg.GridConnectionKW)

	extra := make([]float64, len(claims))
	for i := range claims {
		extra[i] = min(claims[i]-fromGrid[i], r.cfg.Chargers[i].PCSLimitKW-fromGrid[i])
	}
	budget := r.batt.MaxDischarge(r.socKWh, dt)
	fromBatt, dischargeKW := allocateExtra(extra, budget)

	batteryKW := 0.0
	if dischargeKW > 0 {
		applied, soc := r.batt.Step(r.socKWh, dischargeKW, dt)
		r.socKWh = soc
		batteryKW = applied
	} else if r.cfg.AllowGridCharging {
		spare := r.cfg.GridConnectionKW - gridKW
		pcsHeadroom := 0.0
		for i, ch := range r.cfg.Chargers {
			pcsHeadroom += ch.PCSLimitKW - fromGrid[i]
		}
		applied, soc := r.batt.Step(r.socKWh, -min(spare, pcsHeadroom), dt, model.DCDCModuleKW)
		r.socKWh = soc
		batteryKW = applied
		gridKW += -applied
	}

	delivered := make([]float64, len(claims))
	for i := range delivered {
		delivered[i] = fromGrid[i] + fromBatt[i]
	}
	return model.AllocationRecord{
		GridKW:      gridKW,
		BatteryKW:   batteryKW,
		DeliveredKW: delivered,
		ShortfallKW: shortfalls(claims, fromGrid, fromBatt),
	}
}

// noteBindings flags caps that were active during the step.
func (r *run) noteBindings(rec model.AllocationRecord) {
	if rec.GridKW >= r.cfg.GridConnectionKW-capEpsilon && rec.GridKW > 0 {
		r.binding[model.BindingGridCap] = true
	}
	for i, ch := range r.cfg.Chargers {
		if rec.DeliveredKW[i] >= ch.PCSLimitKW-capEpsilon {
			r.binding[model.BindingPCSCap] = true
			break
		}
	}
	if spec := r.cfg.Battery; spec != nil {
		mag := rec.BatteryKW
		if mag < 0 {
			mag = -mag
		}
		if mag >= spec.PowerKW-capEpsilon && mag > 0 {
			r.binding[model.BindingBatteryPower] = true
		}
		if r.cfg.Topology == model.ACCoupledBESS && mag >= spec.InverterKW-capEpsilon && mag > 0 {
			r.binding[model.BindingInverterCap] = true
		}
		if r.socKWh <= capEpsilon && rec.TotalShortfallKW() > capEpsilon {
			r.binding[model.BindingBatteryEmpty] = true
		}
	}
}

// summary folds the ledger into run figures plus the binding-constraint list.
func (r *run) summary(records []model.AllocationRecord, dtHours float64) model.RunSummary {
	s := model.Summarize(records, dtHours)
	for _, name := range []string{
		model.BindingGridCap,
		model.BindingPCSCap,
		model.BindingBatteryPower,
		model.BindingBatteryEmpty,
		model.BindingInverterCap,
	} {
		if r.binding[name] {
			s.BindingConstraints = append(s.BindingConstraints, name)
		}
	}
	return s
}

// shortfalls returns per-charger unserved demand. Sources may be nil.
func shortfalls(claims, fromGrid, fromBatt []float64) []float64 {
	out := make([]float64, len(claims))
	for i, claim := range claims {
		served := 0.0
		if fromGrid != nil {
			served += fromGrid[i]
		}
		if fromBatt != nil {
			served += fromBatt[i]
		}
		if gap := claim - served; gap > capEpsilon {
			out[i] = gap
		}
	}
	return out
}

type discardLogger struct{}

func (discardLogger) Debugf(string, ...any)         {}
func (discardLogger) Debugw(string, map[string]any) {}
func (discardLogger) Infof(string, ...any)          {}
func (discardLogger) Warnf(string, ...any)          {}
func (discardLogger) Errorf(string, ...any)         {}
