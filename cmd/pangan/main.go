package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pasar-banyumas/pangan-forecaster/calendar"
	"github.com/pasar-banyumas/pangan-forecaster/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	envFile    string

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pangan",
		Short: "Peramalan harga komoditas pangan di Pasar Manis dan Pasar Wage",
		Long: `Forecasts daily chicken meat and shallot prices at two Banyumas markets with a
pretrained single-step model, saves the merged history and forecast as spreadsheets and
renders them as a dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd.Flags().Changed("env-file"))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with PANGAN_* overrides")

	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the environment and configuration shared by every subcommand and installs the
// default logger.
func setup(envRequired bool) error {
	if err := config.LoadEnv(envFile, envRequired); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s, %w", configFile, err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level, %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func newCalendar() (*calendar.Calendar, error) {
	cal, err := calendar.New(cfg.Holidays...)
	if err != nil {
		return nil, fmt.Errorf("invalid holidays in config, %w", err)
	}
	return cal, nil
}
