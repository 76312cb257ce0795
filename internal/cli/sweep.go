package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearth-hq/hearth/internal/gateway"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run all maintenance sweeps once and exit",
	Run:   runSweep,
}

func runSweep(cmd *cobra.Command, args []string) {
	printHeader("🧹 hearth Sweep")

	a := mustApp()
	defer a.Close()

	ctx := context.Background()
	failed := false

	fmt.Print("Renewing expiring subscriptions... ")
	if err := a.subs.RenewExpiring(ctx, time.Now()); err != nil {
		failed = true
		fmt.Printf("error: %v\n", err)
	} else {
		fmt.Println("done")
	}

	fmt.Print("Expiring stale actions... ")
	if n, err := a.workflow.ExpireStale(); err != nil {
		failed = true
		fmt.Printf("error: %v\n", err)
	} else {
		fmt.Printf("done (%d expired)\n", n)
	}

	fmt.Print("Retrying pending insights... ")
	if err := a.insights.DispatchPending(ctx); err != nil {
		failed = true
		fmt.Printf("error: %v\n", err)
	} else {
		fmt.Println("done")
	}

	fmt.Print("Cleaning up terminal actions... ")
	if n, err := a.workflow.CleanupTerminal(); err != nil {
		failed = true
		fmt.Printf("error: %v\n", err)
	} else {
		fmt.Printf("done (%d deleted)\n", n)
	}

	fmt.Print("Cleaning up memories... ")
	if n, err := a.memory.CleanupExpired(); err != nil {
		failed = true
		fmt.Printf("error: %v\n", err)
	} else {
		fmt.Printf("done (%d deleted)\n", n)
	}

	fmt.Print("Re-running detection... ")
	pipeline := gateway.NewPipeline(a.store, a.syncer, a.engine, a.insights, a.cfg.Household)
	if err := pipeline.Analyze(ctx); err != nil {
		failed = true
		fmt.Printf("error: %v\n", err)
	} else {
		fmt.Println("done")
	}

	if failed {
		os.Exit(1)
	}
}
