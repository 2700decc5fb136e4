// =============================================================================
// Skrubbify - Process Command
// =============================================================================
//
// This file defines the 'process' command, which prices one or more
// receipts and writes their reports.
//
// COMMAND USAGE:
//   skrubbify process [receipts...] [flags]
//
// RECEIPT SOURCES (first match wins):
//   1. Positional arguments and --file
//   2. --input-dir: every *.pdf and *.txt in the directory
//   3. An interactive prompt for a single path
//
// PROCESSING PIPELINE (per receipt, concurrently in batch mode):
//   1. Extract the page texts
//   2. Isolate, slice and normalize the item table
//   3. Price every product
//   4. Write the report
//   5. Archive the receipt (when enabled)
//
// A single receipt is written to --output (default Skrubbenpriser.txt).
// Several receipts are written to the output directory, named after
// output_name, together with a run summary and an error log.
//
// =============================================================================

package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/skrubbify/internal/config"
	"github.com/ginjaninja78/skrubbify/internal/receipt"
	"github.com/ginjaninja78/skrubbify/internal/report"
	"github.com/ginjaninja78/skrubbify/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	filePaths  []string
	inputDir   string
	outputPath string
	format     string
	vatFactor  float64
	threshold  float64
	surcharge  int64
	archive    bool
	dryRun     bool
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process [receipts...]",
	Short: "Price the items of one or more receipts",
	Long: `The process command reads Snabbgross receipts and writes, for each one,
the list of products with their rounded per-unit price.

With a single receipt the report is written to --output. With several
receipts (or --input-dir) each report is written to the output directory
and receipts are processed concurrently; a failed receipt is logged and
does not stop the others unless continue_on_error is false.

Without any receipt argument the command asks for a path.`,

	RunE: runProcess,
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	flags := processCmd.Flags()
	flags.StringSliceVarP(&filePaths, "file", "f", nil, "Receipt to process (repeatable)")
	flags.StringVar(&inputDir, "input-dir", "", "Process every receipt in this directory")
	flags.StringVarP(&outputPath, "output", "o", "", "Report path (single receipt) or output directory (batch)")
	flags.StringVar(&format, "format", "", "Report format: text, csv, xlsx or xml (default: by extension)")
	flags.Float64Var(&vatFactor, "vat", 0, "VAT factor applied to listed prices, e.g. 1.12")
	flags.Float64Var(&threshold, "threshold", 0, "Rounding threshold in [0,1)")
	flags.Int64Var(&surcharge, "surcharge", 0, "Whole kronor added to every price")
	flags.BoolVar(&archive, "archive", false, "Move processed receipts to the archive directory")
	flags.BoolVar(&dryRun, "dry-run", false, "Print the report instead of writing files")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// receiptOutcome is the result of one receipt in a run.
type receiptOutcome struct {
	Path        string
	Output      string
	ArchivePath string
	Result      *receipt.Result
	Err         error
}

func runProcess(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	cfg := appConfig

	if err := applyProcessFlags(cmd, cfg); err != nil {
		return err
	}
	warnFirstPageOnly(cfg)

	receipts, batch, err := collectReceipts(cmd, cfg, args)
	if err != nil {
		return err
	}
	if len(receipts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No receipts found.")
		return nil
	}

	proc, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.ArchiveDir)
	fm.ArchiveOnSuccess = archive
	if batch && !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	// Report paths are fixed before any goroutine starts, so two receipts
	// never write the same file.
	outputs := make([]string, len(receipts))
	switch {
	case batch:
		outputs = fm.OutputPathsFor(receipts, cfg.OutputName)
	case outputPath != "":
		outputs[0] = outputPath
	default:
		outputs[0] = cfg.Report.Output
	}

	outcomes := make([]receiptOutcome, len(receipts))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(cfg.MaxConcurrency)

	for i, path := range receipts {
		i, path := i, path // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			out := receiptOutcome{Path: path, Output: outputs[i]}
			out.Result, out.Err = proc.Process(ctx, path)

			if out.Err == nil && !dryRun {
				out.Err = report.WriteFile(out.Output, out.Result.Items, cfg.ReportOptions())
				if out.Err == nil {
					out.ArchivePath, out.Err = fm.ArchiveReceipt(path)
				}
			}

			outcomes[i] = out
			if out.Err != nil {
				log.Warn("receipt failed", zap.String("receipt", path), zap.Error(out.Err))
				if !*cfg.ContinueOnError {
					return out.Err
				}
			}
			return nil
		})
	}
	firstErr := g.Wait()

	if dryRun {
		if err := printReports(cmd.OutOrStdout(), outcomes, cfg); err != nil {
			return err
		}
	}

	failed := reportOutcomes(cmd.OutOrStdout(), outcomes, dryRun)

	if batch && !dryRun {
		if err := writeRunLogs(cmd.OutOrStdout(), fm, outcomes, startTime); err != nil {
			return err
		}
	}

	switch {
	case firstErr != nil:
		return firstErr
	case failed == 1 && len(receipts) == 1:
		return outcomes[0].Err
	case failed > 0:
		return fmt.Errorf("%d of %d receipt(s) failed", failed, len(receipts))
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// applyProcessFlags copies explicitly set flags over the configuration.
func applyProcessFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("vat") {
		cfg.Pricing.VATFactor = vatFactor
	}
	if flags.Changed("threshold") {
		t := threshold
		cfg.Pricing.RoundingThreshold = &t
	}
	if flags.Changed("surcharge") {
		cfg.Pricing.FlatSurcharge = surcharge
	}
	if flags.Changed("format") {
		cfg.Report.Format = format
	}
	if flags.Changed("input-dir") {
		cfg.InputDir = inputDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// collectReceipts resolves the receipts to process. batch is true when the
// reports go to the output directory.
func collectReceipts(cmd *cobra.Command, cfg *config.Config, args []string) ([]string, bool, error) {
	receipts := append(append([]string(nil), args...), filePaths...)
	batch := false

	switch {
	case cmd.Flags().Changed("input-dir"):
		fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.ArchiveDir)
		found, err := fm.DiscoverReceipts()
		if err != nil {
			return nil, false, err
		}
		receipts = append(receipts, found...)
		batch = true
	case len(receipts) == 0:
		path, err := promptForReceipt(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return nil, false, err
		}
		receipts = []string{path}
	}

	batch = batch || len(receipts) > 1
	if batch && outputPath != "" {
		cfg.OutputDir = outputPath
	}
	return receipts, batch, nil
}

// promptForReceipt asks for a receipt path on the terminal.
func promptForReceipt(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprintln(out, "Please input receipt file path:")
	fmt.Fprintln(out, "(If in the same folder as this program, simply enter file name)")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read receipt path: %w", err)
	}

	path := strings.Trim(strings.TrimSpace(line), `"'`)
	if path == "" {
		return "", errors.New("no receipt path given")
	}
	return path, nil
}

// printReports writes the text report of every priced receipt to w.
func printReports(w io.Writer, outcomes []receiptOutcome, cfg *config.Config) error {
	text := &report.TextWriter{NameWidth: cfg.Report.NameWidth, TrimNames: cfg.Report.TrimNames}
	for _, out := range outcomes {
		if out.Result == nil {
			continue
		}
		var buf bytes.Buffer
		if err := text.Write(&buf, out.Result.Items); err != nil {
			return err
		}
		fmt.Fprintf(w, "=== %s ===\n%s\n\n", filepath.Base(out.Path), buf.String())
	}
	return nil
}

// reportOutcomes prints one status line per receipt and returns the number
// of failures. Receipts skipped after a cancelled batch are not listed.
func reportOutcomes(w io.Writer, outcomes []receiptOutcome, dryRun bool) int {
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	failed := 0
	for _, out := range outcomes {
		switch {
		case out.Path == "":
		case out.Err != nil:
			failed++
			bad.Fprintf(w, "  ✗ %s: %v\n", filepath.Base(out.Path), out.Err)
		case dryRun:
			ok.Fprintf(w, "  ✓ %s: %d item(s)\n", filepath.Base(out.Path), len(out.Result.Items))
		default:
			ok.Fprintf(w, "  ✓ %s -> %s (%d item(s))\n", filepath.Base(out.Path), out.Output, len(out.Result.Items))
		}
	}
	return failed
}

// writeRunLogs writes the run summary and, when receipts failed, the error
// log into the output directory.
func writeRunLogs(w io.Writer, fm *utils.FileManager, outcomes []receiptOutcome, start time.Time) error {
	summary := utils.ProcessingSummary{StartTime: start, EndTime: time.Now()}
	var entries []utils.ErrorLogEntry

	for _, out := range outcomes {
		if out.Path == "" {
			continue
		}
		summary.TotalFiles++

		if out.Err != nil {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    out.Path,
				ErrorMessage: out.Err.Error(),
				ErrorType:    errorType(out.Err),
			})
			entries = append(entries, errorLogEntry(out))
			continue
		}

		summary.SuccessfulFiles++
		summary.TotalItems += len(out.Result.Items)
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   out.Path,
			OutputFile:  out.Output,
			ArchivePath: out.ArchivePath,
			Items:       len(out.Result.Items),
			ProcessTime: out.Result.Stats.ProcessingTime,
		})
	}

	summaryPath, err := utils.WriteSummaryLog(summary, fm.OutputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSummary written to %s\n", summaryPath)

	logPath, err := utils.WriteErrorLog(entries, fm.OutputDir)
	if err != nil {
		return err
	}
	if logPath != "" {
		fmt.Fprintf(w, "Errors have been logged to %s\n", logPath)
	}
	return nil
}

func errorType(err error) string {
	if errors.Is(err, receipt.ErrMalformedReceipt) {
		return "malformed_receipt"
	}
	return "processing_error"
}

func errorLogEntry(out receiptOutcome) utils.ErrorLogEntry {
	entry := utils.ErrorLogEntry{
		Timestamp:    time.Now(),
		FileName:     filepath.Base(out.Path),
		ErrorType:    errorType(out.Err),
		ErrorMessage: out.Err.Error(),
	}

	var malformed *receipt.MalformedReceiptError
	if errors.As(out.Err, &malformed) {
		entry.LineNumber = malformed.Line
		entry.FieldName = malformed.Field
		entry.FieldValue = malformed.Value
	}
	return entry
}
