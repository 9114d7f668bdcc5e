package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vanet-metrics/internal/config"
	"vanet-metrics/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

// Influx settings read from the environment by upload when no config is
// given.
var influxEnvVars = []string{
	"INFLUXDB_HOST",
	"INFLUXDB_TOKEN",
	"INFLUXDB_ORG",
	"INFLUXDB_BUCKET",
}

func Execute() error {
	loadEnvironment()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var logLevel string
	var aggregationLogLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:           "vanet-metrics",
		Short:         "VANET simulation log analysis",
		Long:          "Turns vehicle contact and per-second simulation logs into contact, meeting time and vehicle count charts",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.SetLogFormat(logFormat); err != nil {
				return fmt.Errorf("invalid log format: %w", err)
			}
			if logLevel != "" {
				if err := logging.SetLogLevel(logLevel); err != nil {
					return fmt.Errorf("invalid log level: %w", err)
				}
			}
			if aggregationLogLevel != "" {
				if err := logging.SetAggregationLogLevel(aggregationLogLevel); err != nil {
					return fmt.Errorf("invalid aggregation log level: %w", err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Set log output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&aggregationLogLevel, "aggregation-log-level", "", "Set log level of the per-bin aggregation diagnostics")

	rootCmd.AddCommand(newRunCmd(&logLevel))
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newScenariosCmd())
	rootCmd.AddCommand(newUploadCmd())

	return rootCmd
}

func loadEnvironment() {
	logger := logging.GetLogger()

	// Try to load .env file from current directory
	envFile := ".env"
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
		} else {
			logger.WithField("file", envFile).Debug("Loaded environment variables")
		}
		return
	}

	// Try to load from the application directory
	execPath, err := os.Executable()
	if err != nil {
		return
	}
	envFile = filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.WithField("file", envFile).WithError(err).Warn("Error loading .env file")
	} else {
		logger.WithField("file", envFile).Debug("Loaded environment variables")
	}
}

// validateEnvironment reports database settings whose ${VAR} reference was
// not resolved from the environment.
func validateEnvironment(db config.DatabaseConfig) error {
	logger := logging.GetLogger()

	if !db.Enabled {
		return nil
	}

	fields := map[string]string{
		"host":     db.Host,
		"name":     db.Name,
		"password": db.Password,
		"org":      db.Org,
	}

	var missing []string
	for field, value := range fields {
		if strings.Contains(value, "${") {
			missing = append(missing, field+"="+value)
		}
	}

	if len(missing) > 0 {
		logger.WithField("unresolved", missing).Error("Database settings reference missing environment variables")
		return fmt.Errorf("unresolved database settings: %v. Please ensure your .env file contains these variables", missing)
	}

	logger.Debug("Database settings resolved")
	return nil
}

func databaseFromEnv() (config.DatabaseConfig, error) {
	var missing []string
	for _, name := range influxEnvVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return config.DatabaseConfig{}, fmt.Errorf("missing required environment variables: %v", missing)
	}
	return config.DatabaseConfig{
		Enabled:  true,
		Host:     os.Getenv("INFLUXDB_HOST"),
		Name:     os.Getenv("INFLUXDB_BUCKET"),
		Password: os.Getenv("INFLUXDB_TOKEN"),
		Org:      os.Getenv("INFLUXDB_ORG"),
	}, nil
}

// loadConfig reads configFile, or falls back to the built-in defaults when
// it is empty.
func loadConfig(configFile string) (*config.AnalysisConfig, string, error) {
	if configFile == "" {
		logging.GetLogger().Debug("No config file given, using built-in defaults")
		return config.Default(), "", nil
	}
	return config.LoadConfigWithContent(configFile)
}

func newValidateCmd() *cobra.Command {
	var configFile string

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an analysis configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger()

			if _, err := config.LoadConfig(configFile); err != nil {
				logger.WithField("config_file", configFile).WithError(err).Error("Configuration validation failed")
				return err
			}
			logger.WithField("config_file", configFile).Info("Configuration is valid")
			return nil
		},
	}

	validateCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to analysis configuration file")
	validateCmd.MarkFlagRequired("config")
	return validateCmd
}

func newScenariosCmd() *cobra.Command {
	var configFile string

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List configured scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(configFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range cfg.Scenarios {
				state := "enabled"
				if !s.IsEnabled() {
					state = "disabled"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", s.Prefix, state, s.Name)
			}
			return nil
		},
	}

	scenariosCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to analysis configuration file (defaults to built-in scenarios)")
	return scenariosCmd
}
