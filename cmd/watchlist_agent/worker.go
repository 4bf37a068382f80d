package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/watchlist-monitor/internal/scheduler"
)

var workerCommand = &cobra.Command{
	Use:   "worker",
	Short: "Run the long-lived monitoring worker",
	Long: `Registers the recurring monitoring jobs (idempotently, so restarts are safe) and drives the scheduler loop until interrupted.

Each watchlist is re-evaluated at its interval; missed intervals during downtime are not backfilled.`,
	RunE: runWorkerCmd,
}

var (
	workerConfigPath     string
	workerWatchlistsPath string
	workerDatabaseURL    string
	workerInterval       int
	workerUseBrowser     bool
	workerVerbose        bool
)

func init() {
	workerCommand.Flags().StringVar(&workerConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	workerCommand.Flags().StringVarP(&workerWatchlistsPath, "watchlists", "w", "", "Path to a watchlist JSON file (in-memory mode, mutually exclusive with --db-url)")
	workerCommand.Flags().StringVar(&workerDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	workerCommand.Flags().IntVar(&workerInterval, "interval", 0, "Sweep interval in seconds")
	workerCommand.Flags().BoolVar(&workerUseBrowser, "use-browser", false, "Use headless browser for JS-heavy listings (requires Chrome)")
	workerCommand.Flags().BoolVarP(&workerVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(workerCommand)
}

func runWorkerCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadMergedConfig(cmd, workerConfigPath)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg, workerWatchlistsPath)
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
	log.Printf("[worker] Monitoring %d job(s), sweep interval %v", len(results), cfg.MonitorInterval())

	err = sched.Run(ctx, scheduler.DefaultTickResolution)
	if errors.Is(err, context.Canceled) {
		log.Printf("[worker] Shutting down")
		return nil
	}
	if err != nil {
		return fmt.Errorf("scheduler stopped: %w", err)
	}
	return nil
}
