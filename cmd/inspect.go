// =============================================================================
// Skrubbify - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command, which prints the isolated and
// normalized item table of a receipt without pricing it. It is the first
// thing to run when Snabbgross changes its receipt layout.
//
// COMMAND USAGE:
//   skrubbify inspect kvitto.pdf
//
// OUTPUT:
//   LINE  NAME                QTY  PRICE   KIND
//   1     COCA-COLA 33CL      24   199.00  product
//   2     PANT                     24.00   deposit
//
// =============================================================================

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// inspectCmd represents the 'inspect' command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <receipt>",
	Short: "Print the parsed item table of a receipt",
	Long: `Inspect extracts the receipt text, isolates the item table and prints every
row as it is sliced by the configured layout, together with the role it
plays in pricing. Nothing is written to disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	warnFirstPageOnly(appConfig)

	proc, err := newProcessor(appConfig)
	if err != nil {
		return err
	}

	rows, err := proc.Rows(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tNAME\tQTY\tPRICE\tKIND")
	for _, row := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			row.Line, row.TrimmedName(), optional(row.Quantity), optional(row.GrossPrice), proc.Classify(row))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d row(s)\n", len(rows))
	return nil
}

// optional renders an absent number as an empty cell.
func optional(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
