package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vanet-metrics/internal/config"
	"vanet-metrics/internal/database"
	"vanet-metrics/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	var configFile string

	uploadCmd := &cobra.Command{
		Use:   "upload SPOOL_FILE...",
		Short: "Write spooled scenario results to InfluxDB",
		Long:  "Write spool artifacts from earlier runs to InfluxDB. Connection settings come from the config's data.db block or the INFLUXDB_* environment variables.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := uploadDatabase(configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return uploadArtifacts(ctx, db, args)
		},
	}

	uploadCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to analysis configuration file with database settings")
	return uploadCmd
}

func uploadDatabase(configFile string) (config.DatabaseConfig, error) {
	if configFile == "" {
		return databaseFromEnv()
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	db := cfg.Analysis.Data.DB
	if !db.Enabled {
		return config.DatabaseConfig{}, fmt.Errorf("database is not enabled in %s", configFile)
	}
	if err := validateEnvironment(db); err != nil {
		return config.DatabaseConfig{}, err
	}
	return db, nil
}

func uploadArtifacts(ctx context.Context, db config.DatabaseConfig, paths []string) error {
	logger := logging.GetLogger()

	// Read everything first so a bad file fails before anything is written.
	artifacts := make([]*database.SpoolArtifact, 0, len(paths))
	for _, p := range paths {
		a, err := database.ReadSpoolArtifact(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		artifacts = append(artifacts, a)
	}

	client, err := database.NewInfluxDBClient(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer client.Close()

	for i, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := client.WriteArtifact(ctx, a); err != nil {
			return fmt.Errorf("failed to upload %s: %w", paths[i], err)
		}
		logger.WithFields(logrus.Fields{
			"file":     paths[i],
			"scenario": a.Scenario,
			"checksum": a.Checksum,
			"charts":   len(a.Charts),
		}).Info("Uploaded spool artifact")
	}
	return nil
}
