// =============================================================================
// Skrubbify - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Skrubbify CLI application. It
// delegates command execution to the cmd package.
//
// USAGE:
//   skrubbify process       - Price the items of one or more receipts
//   skrubbify inspect       - Print the parsed item table of a receipt
//   skrubbify version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/               : CLI command definitions (Cobra)
//   - internal/receipt   : table isolation, normalization and pricing
//   - internal/extractor : PDF and text receipt readers
//   - internal/report    : text, CSV and XLSX report writers
//   - internal/config    : YAML and environment configuration
//   - internal/logger    : zap logger construction
//   - pkg/utils          : discovery, archival and run logs
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/skrubbify/cmd"
)

func main() {
	cmd.Execute()
}
