package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/watchlist-monitor/internal/pipeline"
	"github.com/jonathan/watchlist-monitor/internal/scheduler"
	"github.com/jonathan/watchlist-monitor/internal/store"
)

// sweepJobID is the stable id of the global monitoring job that covers every
// watchlist without a custom interval. Registration under a fixed id is what
// makes scheduling idempotent across restarts.
const sweepJobID = "watchlist-monitor-01"

var scheduleCommand = &cobra.Command{
	Use:   "schedule",
	Short: "Register recurring monitoring jobs",
	Long: `Registers the recurring monitoring jobs in the durable job store: the global sweep job plus one job per watchlist with a custom interval.

Registration is idempotent: jobs that already exist are left untouched. Run this after adding watchlists, or let the worker command do it on boot.`,
	RunE: runScheduleCmd,
}

var (
	scheduleConfigPath     string
	scheduleWatchlistsPath string
	scheduleDatabaseURL    string
	scheduleInterval       int
)

func init() {
	scheduleCommand.Flags().StringVar(&scheduleConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	scheduleCommand.Flags().StringVarP(&scheduleWatchlistsPath, "watchlists", "w", "", "Path to a watchlist JSON file (in-memory mode, mutually exclusive with --db-url)")
	scheduleCommand.Flags().StringVar(&scheduleDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	scheduleCommand.Flags().IntVar(&scheduleInterval, "interval", 0, "Sweep interval in seconds")

	rootCmd.AddCommand(scheduleCommand)
}

func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(cmd, scheduleConfigPath)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg, scheduleWatchlistsPath)
	if err != nil {
		return err
	}
	defer be.close()

	runner, err := buildRunner(cfg, be.store)
	if err != nil {
		return err
	}

	sched := scheduler.New(be.jobs)
	results, err := registerMonitorJobs(ctx, sched, be.store, runner, cfg.MonitorInterval())
	if err != nil {
		return err
	}

	for jobID, result := range results {
		fmt.Fprintf(os.Stdout, "%s: %s\n", jobID, result)
	}
	return nil
}

// registerMonitorJobs registers the global sweep job and one job per
// watchlist that carries its own interval. Returns the registration outcome
// per job id.
func registerMonitorJobs(ctx context.Context, sched *scheduler.Scheduler, st store.Store, runner *pipeline.Runner, sweepInterval time.Duration) (map[string]scheduler.RegistrationResult, error) {
	results := make(map[string]scheduler.RegistrationResult)

	result, err := sched.RegisterRecurring(ctx, sweepJobID, sweepInterval, 0, sweepHandler(st, runner))
	if err != nil {
		return nil, fmt.Errorf("failed to register sweep job: %w", err)
	}
	results[sweepJobID] = result

	watchlists, err := st.ListActiveWatchlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active watchlists: %w", err)
	}

	for _, wl := range watchlists {
		if wl.MonitorInterval <= 0 {
			continue
		}
		jobID := scheduler.MonitorJobID(wl.ID)
		result, err := sched.RegisterRecurring(ctx, jobID, wl.MonitorInterval, 0, watchlistHandler(runner, wl.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to register job for watchlist %s: %w", wl.ID, err)
		}
		results[jobID] = result
	}

	return results, nil
}

// sweepHandler evaluates every active watchlist that does not have its own
// recurring job. The watchlist set is read at fire time, so watchlists added
// after registration are picked up on the next sweep.
func sweepHandler(st store.Store, runner *pipeline.Runner) scheduler.JobHandler {
	return func(ctx context.Context) error {
		watchlists, err := st.ListActiveWatchlists(ctx)
		if err != nil {
			return fmt.Errorf("failed to list active watchlists: %w", err)
		}
		for _, wl := range watchlists {
			if wl.MonitorInterval > 0 {
				continue
			}
			if _, err := runner.EvaluateWatchlist(ctx, wl.ID); err != nil {
				log.Printf("[worker] Watchlist %s evaluation failed: %v", wl.ID, err)
			}
		}
		return nil
	}
}

// watchlistHandler evaluates a single watchlist.
func watchlistHandler(runner *pipeline.Runner, watchlistID string) scheduler.JobHandler {
	return func(ctx context.Context) error {
		_, err := runner.EvaluateWatchlist(ctx, watchlistID)
		return err
	}
}
