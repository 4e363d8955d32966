// =============================================================================
// Report Export - Serve Command
// =============================================================================
//
// The serve command exposes the exporters over HTTP:
//
//   GET  /healthz
//   POST /api/v1/reports/members   rows in the body, XLSX back
//   POST /api/v1/reports/finance   figures in the body, XLSX or HTML back
//   GET  /api/v1/reports/members   rows from the payments database
//   GET  /api/v1/reports/finance   figures from the payments database
//
// The GET routes are only registered when a database is configured.
//
// =============================================================================

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/renang/report-export/internal/exporter"
	"github.com/renang/report-export/internal/server"
	"github.com/renang/report-export/internal/source"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "Listen address (overrides listen_addr)")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "Payments database (default is sqlite_path)")
	if err := v.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen")); err != nil {
		panic(err)
	}
}

func runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := loggerFrom(cmd)

	exp, err := exporter.New(appConfig)
	if err != nil {
		return err
	}

	deps := server.Dependencies{Exporter: exp}
	if name := resolveDB(); name != "" {
		store, err := source.Open(ctx, name)
		if err != nil {
			return err
		}
		defer store.Close()

		deps.Members = store
		deps.Financial = store
		logger.Info().Str("db", name).Msg("payments database attached")
	}

	api := server.NewWebAPI(*logger, server.Config{
		Addr:            appConfig.ListenAddr,
		ShutdownTimeout: appConfig.ShutdownTimeout,
		MaxBodyBytes:    appConfig.MaxBodyBytes,
		MaxRowErrors:    appConfig.MaxRowErrors,
		Dependencies:    deps,
	})

	return api.Start(ctx)
}
