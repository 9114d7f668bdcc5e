package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vanet-metrics/internal/config"
	"vanet-metrics/internal/database"
	"vanet-metrics/internal/logging"
	"vanet-metrics/internal/pipeline"
	"vanet-metrics/internal/plot"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configFile string
	scenarios  []string
	thresholds string
	format     string
	backend    string
	outputDir  string
	noSpool    bool
	noCSV      bool
}

func newRunCmd(logLevel *string) *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Generate charts for the selected scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, content, err := loadConfig(opts.configFile)
			if err != nil {
				return err
			}
			if err := opts.apply(cfg); err != nil {
				return err
			}
			// The flag wins over the config file.
			if *logLevel == "" && cfg.Analysis.LogLevel != "" {
				if err := logging.SetLogLevel(cfg.Analysis.LogLevel); err != nil {
					return fmt.Errorf("invalid log level in config: %w", err)
				}
			}
			if err := validateEnvironment(cfg.Analysis.Data.DB); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runAnalysis(ctx, cfg, content, opts.scenarios)
		},
	}

	runCmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Path to analysis configuration file (defaults to built-in settings)")
	runCmd.Flags().StringSliceVarP(&opts.scenarios, "scenario", "s", nil, "Scenario name or prefix to process (repeatable, default: all enabled)")
	runCmd.Flags().StringVar(&opts.thresholds, "thresholds", "", "Minimum contact duration thresholds, e.g. 0,3,10 or 0-4")
	runCmd.Flags().StringVar(&opts.format, "format", "", "Output format (png, tikz)")
	runCmd.Flags().StringVar(&opts.backend, "backend", "", "PNG backend (gonum, gochart)")
	runCmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Write every scenario's charts below this folder")
	runCmd.Flags().BoolVar(&opts.noSpool, "no-spool", false, "Do not write spool artifacts")
	runCmd.Flags().BoolVar(&opts.noCSV, "no-csv", false, "Do not export chart series as CSV")

	return runCmd
}

// apply overrides the loaded configuration with the command line flags and
// validates the result.
func (o *runOptions) apply(cfg *config.AnalysisConfig) error {
	if o.thresholds != "" {
		thresholds, err := config.ParseThresholds(o.thresholds)
		if err != nil {
			return err
		}
		cfg.Analysis.Thresholds = thresholds
	}
	if o.format != "" {
		cfg.Analysis.Output.Format = o.format
	}
	if o.backend != "" {
		cfg.Analysis.Output.Backend = o.backend
	}
	if o.outputDir != "" {
		for i := range cfg.Scenarios {
			cfg.Scenarios[i].OutputFolder = filepath.Join(o.outputDir, cfg.Scenarios[i].Prefix)
		}
	}
	if o.noSpool {
		cfg.Analysis.Output.Spool = false
	}
	if o.noCSV {
		cfg.Analysis.Output.ExportCSV = false
	}
	return config.Validate(cfg)
}

func runAnalysis(ctx context.Context, cfg *config.AnalysisConfig, configContent string, names []string) error {
	logger := logging.GetLogger()

	scenarios, err := cfg.SelectScenarios(names)
	if err != nil {
		return err
	}

	out := cfg.Analysis.Output
	plotMgr, err := plot.NewPlotManager(plot.Format(out.Format), plot.Backend(out.Backend))
	if err != nil {
		logger.WithError(err).Error("Failed to create plot manager")
		return fmt.Errorf("failed to create plot manager: %w", err)
	}

	runnerOpts := []pipeline.Option{pipeline.WithVersion(Version)}
	if cfg.Analysis.Data.DB.Enabled {
		dbClient, err := database.NewInfluxDBClient(ctx, cfg.Analysis.Data.DB)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to database")
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbClient.Close()
		runnerOpts = append(runnerOpts, pipeline.WithWriter(dbClient))
	}

	logger.WithFields(logrus.Fields{
		"analysis":   cfg.Analysis.Name,
		"scenarios":  len(scenarios),
		"thresholds": cfg.Analysis.Thresholds,
		"format":     out.Format,
	}).Info("Starting analysis")

	start := time.Now()
	runner := pipeline.NewRunner(cfg, configContent, plotMgr, runnerOpts...)
	results, err := runner.Run(ctx, scenarios)
	if err != nil {
		return err
	}

	charts := 0
	for _, r := range results {
		charts += len(r.Charts)
	}
	logger.WithFields(logrus.Fields{
		"scenarios": len(results),
		"charts":    charts,
		"duration":  time.Since(start),
	}).Info("Analysis completed successfully")
	return nil
}
