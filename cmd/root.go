package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kilianp07/sitesim/config"
	"github.com/kilianp07/sitesim/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "sitesim",
	Short: "EV charging site energy-dispatch simulator",
	RunE:  runScenario,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "write the allocation ledger to this file")
	rootCmd.PersistentFlags().StringVar(&outFormat, "format", "csv", "ledger format: csv or json")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyLogLevel(cfg.Logging.Level)
	return cfg, nil
}

func applyLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		logger.New("cmd").Warnf("unknown log level %q, keeping default", level)
		return
	}
	zerolog.SetGlobalLevel(lvl)
}
