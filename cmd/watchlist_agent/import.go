package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/watchlist-monitor/internal/store"
	"github.com/jonathan/watchlist-monitor/internal/types"
)

var importCommand = &cobra.Command{
	Use:   "import",
	Short: "Import watchlists from a JSON file into the database",
	Long: `Validates a watchlist JSON file against the import schema and upserts every watchlist and its items into the configured database.

Existing watchlists with the same id are updated in place; last known snapshots already stored for their items are preserved.`,
	RunE: runImportCmd,
}

var (
	importConfigPath     string
	importWatchlistsPath string
	importDatabaseURL    string
)

func init() {
	importCommand.Flags().StringVar(&importConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	importCommand.Flags().StringVarP(&importWatchlistsPath, "watchlists", "w", "", "Path to the watchlist JSON file to import (required)")
	importCommand.Flags().StringVar(&importDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	_ = importCommand.MarkFlagRequired("watchlists")

	rootCmd.AddCommand(importCommand)
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(cmd, importConfigPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("a database URL (--db-url flag or DATABASE_URL env var) is required")
	}

	watchlists, err := loadWatchlistFile(importWatchlistsPath)
	if err != nil {
		return err
	}

	ps, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer ps.Close()

	items := 0
	for _, wl := range watchlists {
		// Preserve snapshots already collected for known items.
		if existing, err := ps.GetWatchlist(ctx, wl.ID); err == nil && existing != nil {
			known := make(map[string]*types.TrackedItem, len(existing.Items))
			for i := range existing.Items {
				known[existing.Items[i].ID] = &existing.Items[i]
			}
			for i := range wl.Items {
				if prev, ok := known[wl.Items[i].ID]; ok {
					wl.Items[i].LastKnownSnapshot = prev.LastKnownSnapshot
				}
			}
		}

		if err := ps.SaveWatchlist(ctx, wl); err != nil {
			return err
		}
		items += len(wl.Items)
	}

	fmt.Fprintf(os.Stdout, "Imported %d watchlist(s), %d item(s)\n", len(watchlists), items)
	return nil
}
