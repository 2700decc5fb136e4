// =============================================================================
// Skrubbify - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (skrubbify)
//   ├── processCmd (skrubbify process)
//   ├── inspectCmd (skrubbify inspect)
//   └── versionCmd (skrubbify version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up the global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/skrubbify/internal/config"
	"github.com/ginjaninja78/skrubbify/internal/extractor"
	"github.com/ginjaninja78/skrubbify/internal/logger"
	"github.com/ginjaninja78/skrubbify/internal/receipt"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and log are initialized by the persistent pre-run hook.
var (
	appConfig *config.Config
	log       *zap.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "skrubbify",
	Short: "Skrubbify - Turn a Snabbgross receipt into a per-item price list",

	Long: `Skrubbify reads a Snabbgross wholesale receipt and writes the price list
for the skrubb: every product with its per-unit price, VAT and bottle
deposit (PANT) included, rounded to whole kronor.

Key Features:
  - Reads the text layer of PDF receipts, or pre-extracted text files
  - Folds PANT rows into the product above them
  - Configurable layout offsets and pricing rules (skrubbify.yaml)
  - Text, CSV, XLSX and XML reports
  - Concurrent batch processing with archival

Example Usage:
  skrubbify process kvitto.pdf             # Writes Skrubbenpriser.txt
  skrubbify process --input-dir ./kvitton  # Price every receipt in a folder
  skrubbify inspect kvitto.pdf             # Show the parsed item table`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The default file is optional; an explicit --config must exist.
		cfg, err := config.Load(cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		appConfig = cfg

		l, err := logger.New(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		log = l
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			logger.Close(log)
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
// An interrupt cancels the receipts still in flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// newProcessor builds the receipt pipeline from the loaded configuration.
func newProcessor(cfg *config.Config) (*receipt.Processor, error) {
	ext, err := extractor.New(cfg.ExtractorOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid extraction settings: %w", err)
	}

	opts, err := cfg.ReceiptOptions()
	if err != nil {
		return nil, err
	}

	return receipt.NewProcessor(ext, opts, log)
}

// warnFirstPageOnly prints the single-page warning in red.
func warnFirstPageOnly(cfg *config.Config) {
	if cfg.Extraction.Pages == extractor.PagesFirst {
		color.New(color.FgRed).Fprintln(os.Stderr,
			"WARNING: CURRENTLY ONLY SUPPORTS PRICES LISTED ON FIRST PAGE OF RECEIPT!")
	}
}
