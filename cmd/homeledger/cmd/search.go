package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

var searchLimit int

// searchCmd represents the search command.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the ledger",
	Long: `Search merchant names, descriptions, categories and tags.
Requires a search index (set LEDGER_SEARCH_PATH).

Example:
  homeledger search аптека
  homeledger search "pyaterochka" --limit 5`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum number of hits")
}

func runSearch(cmd *cobra.Command, args []string) {
	deps := mustInitDependencies()
	defer deps.Cleanup()

	if deps.Search == nil {
		exitOnError(fmt.Errorf("no search index configured"),
			"set LEDGER_SEARCH_PATH to enable search")
	}

	ids, err := deps.Search.Search(strings.Join(args, " "), searchLimit)
	exitOnError(err, "search failed")

	ctx := context.Background()
	records := make([]*transaction.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := deps.Store.Get(ctx, id)
		if err != nil {
			// Index entries can outlive store rows; skip strays.
			continue
		}
		records = append(records, rec)
	}
	printRecords(os.Stdout, records)
}
