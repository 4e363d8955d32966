// =============================================================================
// Report Export - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reportexport)
//   ├── membersCmd (reportexport members)
//   ├── financeCmd (reportexport finance)
//   ├── importCmd  (reportexport import)
//   ├── serveCmd   (reportexport serve)
//   └── versionCmd (reportexport version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads a .env file from the working directory, if present
//   2. Reads config.yaml (or --config) and applies REPORTEXPORT_* overrides
//   3. Builds the logger and stores it in the command context
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/renang/report-export/internal/config"
	"github.com/renang/report-export/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file. Empty means
// config.yaml when present, built-in defaults otherwise.
var cfgFile string

// verbose enables human-readable debug logging.
var verbose bool

// v carries environment and flag overrides into the configuration.
var v = config.NewViper()

// appConfig is the configuration resolved for the running command.
var appConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "reportexport",
	Short: "Report Export - member and financial reports for the swimming course",
	Long: `Report Export turns member payment records into formatted spreadsheet
reports: one worksheet per class with a title block, auto-filter and
translated statuses, plus an aggregate financial report as XLSX or HTML.

Example Usage:
  reportexport members --input payments.csv --start 2024-01-01 --end 2024-01-31
  reportexport members --db data/payments.db --start 2024-01-01 --end 2024-01-31
  reportexport finance --request january.yaml --format html
  reportexport serve --config ./config.yaml`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "Path to the main configuration file (default is ./config.yaml if present)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	flags.String("output-dir", "", "Directory for generated reports (overrides output_dir)")
	flags.String("locale", "", "Month-name locale for dates: en or id (overrides date_locale)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (overrides log_level)")

	bindings := map[string]string{
		"output_dir":  "output-dir",
		"date_locale": "locale",
		"log_level":   "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// initConfig loads .env, resolves the configuration and attaches a logger to
// the command context.
func initConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := config.Load(cfgFile, v)
	if err != nil {
		return err
	}
	appConfig = cfg

	logger := logging.New(cfg.LogLevel, verbose)
	cmd.SetContext(logger.WithContext(cmd.Context()))

	logger.Debug().
		Str("config", cfgFile).
		Str("output_dir", cfg.OutputDir).
		Str("locale", cfg.DateLocale).
		Str("collision_policy", cfg.CollisionPolicy).
		Msg("configuration loaded")

	return nil
}

// loggerFrom returns the logger attached by initConfig.
func loggerFrom(cmd *cobra.Command) *zerolog.Logger {
	return zerolog.Ctx(cmd.Context())
}
