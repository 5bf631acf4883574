package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dkuznetsov/homeledger/internal/domain/ledger"
	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

var reviewSuggestions int

// reviewCmd represents the review command.
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Show records that need review, with category suggestions",
	Long: `Show every record the import staged as needs_review, together with
its field problems and ranked category suggestions from the rule set.

Example:
  homeledger review
  homeledger review --suggestions 5`,
	Args: cobra.NoArgs,
	Run:  runReview,
}

func init() {
	reviewCmd.Flags().IntVar(&reviewSuggestions, "suggestions", 3, "category suggestions per record")
}

func runReview(cmd *cobra.Command, args []string) {
	deps := mustInitDependencies()
	defer deps.Cleanup()

	records, err := deps.Store.List(context.Background(),
		ledger.Filter{Status: transaction.StatusNeedsReview})
	exitOnError(err, "failed to list records")

	for _, r := range records {
		fmt.Printf("%s  %s  %s\n",
			r.Date.Format(transaction.CSVDateLayout),
			formatAmount(r.Amount, r.Currency),
			r.Description)
		for _, fe := range r.Errors {
			fmt.Printf("  ! %s: %s\n", fe.Field, fe.Message)
		}

		text := strings.TrimSpace(r.Merchant + " " + r.Description)
		for _, m := range deps.Categorizer.Suggest(text, reviewSuggestions) {
			name := m.Rule.Category
			if m.Rule.Subcategory != "" {
				name += " / " + m.Rule.Subcategory
			}
			fmt.Printf("  ? %s (%d%%)\n", name, m.Score)
		}
	}
	fmt.Printf("%d records need review\n", len(records))
}
