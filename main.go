// =============================================================================
// Report Export - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Report Export CLI application. It
// delegates command execution to the cmd package.
//
// USAGE:
//   reportexport members   - Build the per-class member workbook for a period
//   reportexport finance   - Build the financial report (XLSX or HTML)
//   reportexport import    - Load member exports into the payments database
//   reportexport serve     - Serve reports over HTTP
//   reportexport version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : Cobra command definitions
//   - internal/      : Report model, renderers, parsers, storage, HTTP server
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/renang/report-export/cmd"
)

func main() {
	cmd.Execute()
}
