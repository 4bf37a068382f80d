package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/watchlist-monitor/internal/schemas"
	"github.com/jonathan/watchlist-monitor/internal/types"
)

// watchlistDocument is the import file format accepted by --watchlists. The
// document is schema-validated before decoding.
type watchlistDocument struct {
	Watchlists []importedWatchlist `json:"watchlists"`
}

type importedWatchlist struct {
	ID                     string         `json:"id"`
	UserID                 string         `json:"user_id"`
	Name                   string         `json:"name"`
	Active                 *bool          `json:"active"`
	MonitorIntervalSeconds int            `json:"monitor_interval_seconds"`
	Items                  []importedItem `json:"items"`
}

type importedItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	TargetPrice *float64 `json:"target_price"`
	Status      string   `json:"status"`
}

// toRequest converts an imported watchlist to the request form for
// field-level validation (URL shape, positive target price).
func (in importedWatchlist) toRequest() types.CreateWatchlistRequest {
	req := types.CreateWatchlistRequest{
		UserID: in.UserID,
		Name:   in.Name,
	}
	for _, item := range in.Items {
		req.Items = append(req.Items, types.AddItemRequest{
			Name:        item.Name,
			URL:         item.URL,
			TargetPrice: item.TargetPrice,
		})
	}
	return req
}

// loadWatchlistFile reads, validates, and decodes a watchlist import file.
// Omitted ids are generated, omitted active flags default to true, and
// omitted item statuses default to active.
func loadWatchlistFile(path string) ([]types.Watchlist, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist file %s: %w", path, err)
	}

	if err := schemas.ValidateWatchlistDocument(content); err != nil {
		return nil, fmt.Errorf("invalid watchlist file %s: %w", path, err)
	}

	var doc watchlistDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist file %s: %w", path, err)
	}

	now := time.Now().UTC()
	watchlists := make([]types.Watchlist, 0, len(doc.Watchlists))
	for _, in := range doc.Watchlists {
		req := in.toRequest()
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("invalid watchlist %q in %s: %w", in.Name, path, err)
		}
		wl := types.Watchlist{
			ID:        in.ID,
			UserID:    in.UserID,
			Name:      in.Name,
			Active:    true,
			CreatedAt: now,
		}
		if wl.ID == "" {
			wl.ID = uuid.NewString()
		}
		if in.Active != nil {
			wl.Active = *in.Active
		}
		if in.MonitorIntervalSeconds > 0 {
			wl.MonitorInterval = time.Duration(in.MonitorIntervalSeconds) * time.Second
		}

		for _, item := range in.Items {
			tracked := types.TrackedItem{
				ID:          item.ID,
				WatchlistID: wl.ID,
				Name:        item.Name,
				URL:         item.URL,
				TargetPrice: item.TargetPrice,
				Status:      types.ItemStatus(item.Status),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if tracked.ID == "" {
				tracked.ID = uuid.NewString()
			}
			if tracked.Status == "" {
				tracked.Status = types.ItemStatusActive
			}
			wl.Items = append(wl.Items, tracked)
		}

		watchlists = append(watchlists, wl)
	}

	return watchlists, nil
}
