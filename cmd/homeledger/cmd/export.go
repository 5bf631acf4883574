package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkuznetsov/homeledger/internal/domain/ledger"
	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

var (
	exportFrom string
	exportTo   string
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the ledger to CSV, JSON or XLSX",
	Long: `Export ledger records to a file. The format follows the extension:
.csv (semicolon delimited, dd.mm.yyyy dates), .json (ISO-8601 dates)
or .xlsx.

A CSV export can be re-imported: every row carries its source tags, so
the round trip produces only duplicates.

Example:
  homeledger export ledger.csv
  homeledger export january.xlsx --from 01.01.2025 --to 01.02.2025`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "start date (dd.mm.yyyy or yyyy-mm-dd), inclusive")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "end date, exclusive")
}

func runExport(cmd *cobra.Command, args []string) {
	deps := mustInitDependencies()
	defer deps.Cleanup()

	out := args[0]
	var write func(io.Writer, []*transaction.Record) error
	switch strings.ToLower(filepath.Ext(out)) {
	case ".csv":
		write = ledger.ExportCSV
	case ".json":
		write = ledger.ExportJSON
	case ".xlsx":
		write = ledger.ExportXLSX
	default:
		exitOnError(fmt.Errorf("unsupported extension %q", filepath.Ext(out)),
			"export target must be .csv, .json or .xlsx")
	}

	filter, err := dateFilter(exportFrom, exportTo)
	exitOnError(err, "invalid date filter")

	records, err := deps.Store.List(context.Background(), filter)
	exitOnError(err, "failed to list records")

	f, err := os.Create(out)
	exitOnError(err, "failed to create export file")
	defer f.Close()

	exitOnError(write(f, records), "export failed")
	fmt.Printf("exported %d records to %s\n", len(records), out)
}

// dateFilter builds a ledger filter from optional date strings.
func dateFilter(from, to string) (ledger.Filter, error) {
	var f ledger.Filter
	if from != "" {
		t, err := transaction.ParseCSVDate(from)
		if err != nil {
			return f, fmt.Errorf("invalid start date: %w", err)
		}
		f.From = t
	}
	if to != "" {
		t, err := transaction.ParseCSVDate(to)
		if err != nil {
			return f, fmt.Errorf("invalid end date: %w", err)
		}
		f.To = t
	}
	return f, nil
}
