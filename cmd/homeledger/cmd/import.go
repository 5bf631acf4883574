package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkuznetsov/homeledger/internal/domain/import/parser"
	importservice "github.com/dkuznetsov/homeledger/internal/domain/import/service"
)

var (
	importFormat       string
	importAccount      string
	includeNeedsReview bool
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a bank statement into the ledger",
	Long: `Import a bank statement file. The format is detected automatically:
generic CSV, Sberbank CSV export, Sberbank or Yandex statement text
extracted from PDF, or an Excel workbook.

Already imported transactions are recognized by their deduplication
key and skipped, so re-importing a statement is always safe.

Example:
  homeledger import statement.csv
  homeledger import vypiska.txt --format sberbank-pdf
  homeledger import report.xlsx --account "Карта"`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "", "force a parser by name instead of auto-detection")
	importCmd.Flags().StringVar(&importAccount, "account", "", "account for records without one (default from config)")
	importCmd.Flags().BoolVar(&includeNeedsReview, "include-needs-review", false, "commit records flagged for review instead of dropping them")
}

func runImport(cmd *cobra.Command, args []string) {
	deps := mustInitDependencies()
	defer deps.Cleanup()

	path := args[0]
	data, err := os.ReadFile(path)
	exitOnError(err, "failed to read statement")

	loc := time.Local
	if tz := deps.Config.Import.Timezone; tz != "" {
		loc, err = time.LoadLocation(tz)
		exitOnError(err, fmt.Sprintf("invalid timezone %q", tz))
	}

	account := importAccount
	if account == "" {
		account = deps.Config.Import.DefaultAccount
	}

	summary, err := deps.ImportService.Import(context.Background(),
		parser.Input{Data: data, FileName: filepath.Base(path)},
		importservice.Options{
			Format:             importFormat,
			DefaultCurrency:    deps.Config.Import.DefaultCurrency,
			DefaultAccount:     account,
			Location:           loc,
			IncludeNeedsReview: includeNeedsReview || deps.Config.Import.IncludeNeedsReview,
		})
	exitOnError(err, "import failed")

	slog.Debug("import summary", "parser", summary.Parser, "total", summary.Total)
	fmt.Printf("%s: %d records (%s): %d added, %d duplicates, %d need review\n",
		filepath.Base(path), summary.Total, summary.Parser,
		summary.Added, summary.Duplicates, summary.NeedsReview)
	for _, e := range summary.Errors {
		fmt.Printf("  ! %s\n", e)
	}
}
