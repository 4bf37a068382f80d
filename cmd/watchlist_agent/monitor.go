package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/watchlist-monitor/internal/config"
	"github.com/jonathan/watchlist-monitor/internal/observability"
	"github.com/jonathan/watchlist-monitor/internal/types"
)

var monitorCommand = &cobra.Command{
	Use:   "monitor",
	Short: "Run one monitoring pass over active watchlists",
	Long: `Evaluates every active watchlist once: fetch -> analyze -> diff -> decide -> notify.

Watchlists come from the configured database, or from a JSON file via --watchlists (which runs entirely in memory). Configuration can be loaded from a JSON file using --config; command-line arguments override config file values.`,
	RunE: runMonitorCmd,
}

var (
	monitorConfigPath     string
	monitorWatchlistsPath string
	monitorWatchlistID    string
	monitorDatabaseURL    string
	monitorFetchTimeout   int
	monitorConcurrency    int
	monitorMajorDrop      float64
	monitorUseBrowser     bool
	monitorVerbose        bool
)

func init() {
	// Config file flag (processed first)
	monitorCommand.Flags().StringVar(&monitorConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	monitorCommand.Flags().StringVarP(&monitorWatchlistsPath, "watchlists", "w", "", "Path to a watchlist JSON file (in-memory mode, mutually exclusive with --db-url)")
	monitorCommand.Flags().StringVar(&monitorWatchlistID, "watchlist", "", "Evaluate only this watchlist id")
	monitorCommand.Flags().StringVar(&monitorDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	monitorCommand.Flags().IntVar(&monitorFetchTimeout, "fetch-timeout", 0, "Per-item fetch timeout in seconds")
	monitorCommand.Flags().IntVar(&monitorConcurrency, "concurrency", 0, "Items evaluated concurrently per watchlist")
	monitorCommand.Flags().Float64Var(&monitorMajorDrop, "major-drop", 0, "Price drop percentage treated as major (negative)")
	monitorCommand.Flags().BoolVar(&monitorUseBrowser, "use-browser", false, "Use headless browser for JS-heavy listings (requires Chrome)")
	monitorCommand.Flags().BoolVarP(&monitorVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(monitorCommand)
}

func runMonitorCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(cmd, monitorConfigPath)
	if err != nil {
		return err
	}

	if monitorWatchlistsPath != "" && cmd.Flags().Changed("db-url") {
		return fmt.Errorf("--watchlists and --db-url are mutually exclusive; provide only one")
	}

	be, err := openBackend(ctx, cfg, monitorWatchlistsPath)
	if err != nil {
		return err
	}
	defer be.close()

	runner, err := buildRunner(cfg, be.store)
	if err != nil {
		return err
	}

	var runs []*types.PipelineRun
	if monitorWatchlistID != "" {
		run, err := runner.EvaluateWatchlist(ctx, monitorWatchlistID)
		if err != nil {
			return err
		}
		runs = append(runs, run)
	} else {
		runs, err = runner.EvaluateAll(ctx)
		if err != nil {
			return err
		}
	}

	printer := observability.NewPrinter(os.Stdout)
	for _, run := range runs {
		printer.PrintRun(run)
	}
	return nil
}

// loadMergedConfig builds the effective configuration: config file values,
// then explicitly set CLI flags, then environment fallbacks for anything
// still unset. Shared by all subcommands that use the same flag names.
func loadMergedConfig(cmd *cobra.Command, configPath string) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("db-url") {
		dbURL, _ := cmd.Flags().GetString("db-url")
		cfg.DatabaseURL = dbURL
	}
	if cmd.Flags().Changed("fetch-timeout") {
		seconds, _ := cmd.Flags().GetInt("fetch-timeout")
		cfg.FetchTimeoutSeconds = seconds
	}
	if cmd.Flags().Changed("concurrency") {
		n, _ := cmd.Flags().GetInt("concurrency")
		cfg.Concurrency = n
	}
	if cmd.Flags().Changed("major-drop") {
		pct, _ := cmd.Flags().GetFloat64("major-drop")
		cfg.MajorDropPercent = pct
	}
	if cmd.Flags().Changed("interval") {
		seconds, _ := cmd.Flags().GetInt("interval")
		cfg.MonitorIntervalSeconds = seconds
	}
	if cmd.Flags().Changed("use-browser") {
		useBrowser, _ := cmd.Flags().GetBool("use-browser")
		cfg.UseBrowser = useBrowser
	}
	if cmd.Flags().Changed("verbose") {
		verbose, _ := cmd.Flags().GetBool("verbose")
		cfg.Verbose = verbose
	}

	cfg.FromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
