package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var recurWatch bool

// recurCmd represents the recur command.
var recurCmd = &cobra.Command{
	Use:   "recur",
	Short: "Materialize due recurring transactions",
	Long: `Create ledger records for every due occurrence of the recurring
templates (rent, salary, subscriptions). Requires a template file
(set RECURRING_TEMPLATES_PATH).

Occurrence identifiers are deterministic, so running this repeatedly
never creates the same occurrence twice.

Example:
  homeledger recur
  homeledger recur --watch`,
	Args: cobra.NoArgs,
	Run:  runRecur,
}

func init() {
	recurCmd.Flags().BoolVar(&recurWatch, "watch", false, "keep running and materialize on the daily schedule")
}

func runRecur(cmd *cobra.Command, args []string) {
	deps := mustInitDependencies()
	defer deps.Cleanup()

	if deps.Scheduler == nil {
		exitOnError(fmt.Errorf("no templates configured"),
			"set RECURRING_TEMPLATES_PATH to enable recurring transactions")
	}

	if !recurWatch {
		exitOnError(deps.Scheduler.Materialize(context.Background(), time.Now()),
			"materialization failed")
		return
	}

	exitOnError(deps.Scheduler.Start(), "failed to start scheduler")
	// Catch up on startup instead of waiting for the nightly run.
	deps.Scheduler.RunNow()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	<-deps.Scheduler.Stop().Done()
}
