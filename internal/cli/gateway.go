package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hearth-hq/hearth/internal/gateway"
	"github.com/hearth-hq/hearth/internal/scheduler"
	"github.com/hearth-hq/hearth/internal/worker"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the webhook gateway and background sweeps",
	Run:   runGateway,
}

func runGateway(cmd *cobra.Command, args []string) {
	printHeader("🏠 hearth Gateway")

	a := mustApp()
	defer a.Close()

	a.limiter.Start()
	defer a.limiter.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Make sure every configured calendar has a live push channel.
	for calendarID, owner := range a.cfg.Provider.Calendars {
		if _, err := a.subs.Register(ctx, owner, calendarID); err != nil {
			fmt.Printf("Watch %s: %v\n", calendarID, err)
		}
	}

	pool := worker.NewPool(ctx, a.cfg.Gateway.MaxWorkers)
	pipeline := gateway.NewPipeline(a.store, a.syncer, a.engine, a.insights, a.cfg.Household)
	server := gateway.NewServer(a.cfg.Gateway, pipeline, pool)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })

	if a.cfg.Scheduler.Enabled {
		sched := scheduler.New(a.cfg.Scheduler)
		if err := registerSweeps(sched, a, pipeline); err != nil {
			fmt.Printf("Scheduler setup error: %v\n", err)
			os.Exit(1)
		}
		g.Go(func() error {
			err := sched.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		fmt.Printf("Gateway error: %v\n", err)
		os.Exit(1)
	}
}

// registerSweeps binds the periodic maintenance tasks to their schedules.
func registerSweeps(sched *scheduler.Scheduler, a *app, pipeline *gateway.Pipeline) error {
	cfg := a.cfg.Scheduler

	if err := sched.Register("renew-subscriptions", cfg.RenewCron, func(ctx context.Context) error {
		return a.subs.RenewExpiring(ctx, time.Now())
	}); err != nil {
		return err
	}

	if err := sched.Register("expire-actions", cfg.ExpireCron, func(ctx context.Context) error {
		if _, err := a.workflow.ExpireStale(); err != nil {
			return err
		}
		return a.insights.DispatchPending(ctx)
	}); err != nil {
		return err
	}

	if err := sched.Register("cleanup", cfg.CleanupCron, func(ctx context.Context) error {
		if _, err := a.workflow.CleanupTerminal(); err != nil {
			return err
		}
		a.limiter.Prune(24 * time.Hour)
		return pipeline.Analyze(ctx)
	}); err != nil {
		return err
	}

	return sched.Register("memory-cleanup", cfg.MemoryCron, func(context.Context) error {
		_, err := a.memory.CleanupExpired()
		return err
	})
}
