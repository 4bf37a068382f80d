// Package main provides the entry point for the watchlist monitoring agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "watchlist_agent",
	Short: "Marketplace watchlist monitoring agent",
	Long:  "Watchlist agent re-evaluates tracked marketplace items on a schedule, detects price and availability changes against the last known snapshot, and notifies users when a change matters.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
