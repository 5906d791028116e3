package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sitesim/app"
	"github.com/kilianp07/sitesim/core/model"
	"github.com/kilianp07/sitesim/core/sweep"
	"github.com/kilianp07/sitesim/infra/logger"
)

var sweepWorkers int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the configured scenario across all site topologies",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "parallel workers (0 = number of CPUs)")
	rootCmd.AddCommand(sweepCmd)
}

// runSweep compares topology variants of the configured scenario. Variants
// that need a battery the scenario does not define are skipped.
func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	scenario, profile, err := svc.Scenario()
	if err != nil {
		return err
	}

	var variants []sweep.Variant
	for _, topology := range []model.Topology{model.GridOnly, model.ACCoupledBESS, model.DCCoupledBESS} {
		v := scenario
		v.Topology = topology
		v.Name = fmt.Sprintf("%s/%s", scenario.Name, topology)
		if topology == model.GridOnly {
			v.Battery = nil
		} else if scenario.Battery == nil {
			continue
		}
		variants = append(variants, sweep.Variant{Name: v.Name, Scenario: v, Profile: profile})
	}

	runner := sweep.NewRunner(svc.Engine, sweepWorkers, logger.New("sweep"))
	for _, out := range runner.Run(ctx, variants) {
		if out.Err != nil {
			fmt.Printf("%-40s error: %v\n", out.Variant, out.Err)
			continue
		}
		fmt.Printf("%-40s peak %7.1f kW  cost %10.2f  served %5.1f%%\n",
			out.Variant, out.Result.Summary.PeakGridKW, out.Result.Costs.TotalCost,
			out.Result.Summary.SatisfactionPct)
	}
	return nil
}
