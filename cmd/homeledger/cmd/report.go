package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkuznetsov/homeledger/internal/domain/budget"
	"github.com/dkuznetsov/homeledger/internal/domain/ledger"
)

var (
	reportBudgets string
	reportMonth   string
)

// reportCmd represents the report command.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Evaluate budgets for a month",
	Long: `Evaluate spending against a YAML budget file for one month.
Deleted and duplicate records never count; neither does income.

Example:
  homeledger report --month 2025-01
  homeledger report --budgets family-budgets.yaml`,
	Args: cobra.NoArgs,
	Run:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportBudgets, "budgets", "budgets.yaml", "YAML budget file")
	reportCmd.Flags().StringVar(&reportMonth, "month", time.Now().Format("2006-01"), "month to report on (yyyy-mm)")
}

func runReport(cmd *cobra.Command, args []string) {
	deps := mustInitDependencies()
	defer deps.Cleanup()

	period, err := budget.ParseMonth(reportMonth)
	exitOnError(err, "invalid month")

	budgets, err := budget.LoadBudgets(reportBudgets, period)
	exitOnError(err, "failed to load budgets")

	records, err := deps.Store.List(context.Background(),
		ledger.Filter{From: period.From, To: period.To})
	exitOnError(err, "failed to list records")

	currency := deps.Config.Import.DefaultCurrency

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tLIMIT\tSPENT\tREMAINING\tUSED")
	for _, ev := range budget.EvaluateAll(budgets, records) {
		name := ev.Budget.Category
		if ev.Budget.Subcategory != "" {
			name += " / " + ev.Budget.Subcategory
		}
		mark := ""
		if ev.Over {
			mark = " !"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%%s\n",
			name,
			formatAmount(ev.Budget.Limit, currency),
			formatAmount(ev.Actual, currency),
			formatAmount(ev.Remaining, currency),
			ev.Used(), mark)
	}
	w.Flush()
}
