package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sitesim/app"
	"github.com/kilianp07/sitesim/core/model"
	"github.com/kilianp07/sitesim/infra/logger"
	"github.com/kilianp07/sitesim/pkg/export"
)

var (
	outPath   string
	outFormat string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured scenario once",
	RunE:  runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
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

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(res)
	if outPath == "" {
		return nil
	}
	return writeLedger(res, outPath, outFormat)
}

func printSummary(res *model.SimulationResult) {
	fmt.Printf("scenario %q: %d steps\n", res.Scenario, len(res.Records))
	fmt.Printf("  energy delivered: %.1f kWh (%.1f%% of demand)\n",
		res.Summary.EnergyDeliveredKWh, res.Summary.SatisfactionPct)
	fmt.Printf("  peak grid draw:   %.1f kW\n", res.Summary.PeakGridKW)
	fmt.Printf("  cost: %.2f energy + %.2f demand = %.2f\n",
		res.Costs.EnergyCost, res.Costs.DemandCost, res.Costs.TotalCost)
	for _, b := range res.Summary.BindingConstraints {
		fmt.Printf("  binding: %s\n", b)
	}
}

func writeLedger(res *model.SimulationResult, path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch format {
	case "csv":
		return export.WriteCSV(f, res)
	case "json":
		return export.WriteJSON(f, res)
	default:
		return fmt.Errorf("unknown ledger format %q", format)
	}
}
