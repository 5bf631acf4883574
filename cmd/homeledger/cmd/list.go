package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
	"github.com/dkuznetsov/homeledger/pkg/money"
)

var (
	listFrom     string
	listTo       string
	listCategory string
	listAccount  string
	listStatus   string
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger records",
	Long: `List ledger records, optionally filtered by date range, category,
account or status.

Example:
  homeledger list --from 01.01.2025 --to 01.02.2025
  homeledger list --status needs_review`,
	Args: cobra.NoArgs,
	Run:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listFrom, "from", "", "start date, inclusive")
	listCmd.Flags().StringVar(&listTo, "to", "", "end date, exclusive")
	listCmd.Flags().StringVar(&listCategory, "category", "", "filter by category")
	listCmd.Flags().StringVar(&listAccount, "account", "", "filter by account")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (ok, needs_review, duplicate, deleted)")
}

func runList(cmd *cobra.Command, args []string) {
	deps := mustInitDependencies()
	defer deps.Cleanup()

	filter, err := dateFilter(listFrom, listTo)
	exitOnError(err, "invalid date filter")
	filter.Category = listCategory
	filter.Account = listAccount
	filter.Status = transaction.Status(listStatus)

	records, err := deps.Store.List(context.Background(), filter)
	exitOnError(err, "failed to list records")

	printRecords(os.Stdout, records)
}

// formatAmount renders an amount with its currency symbol.
func formatAmount(amount decimal.Decimal, currency string) string {
	return money.NewFromDecimal(amount, currency).Display()
}

func printRecords(out io.Writer, records []*transaction.Record) {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTYPE\tACCOUNT\tAMOUNT\tCATEGORY\tMERCHANT\tSTATUS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date.Format(transaction.CSVDateLayout), r.Type, r.Account,
			formatAmount(r.Amount, r.Currency), r.Category, r.Merchant, r.Status)
	}
	w.Flush()
	fmt.Fprintf(out, "%d records\n", len(records))
}
