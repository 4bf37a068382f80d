// Package detect compares successive snapshots of a tracked item and produces
// a structured diff of what changed between the two observations.
package detect

import (
	"math"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// Detect compares the previous snapshot of an item against the current one and
// returns the set of changes. It is a pure function: deterministic given its
// inputs, no side effects.
//
// A nil old snapshot is the first-observation case, not an error: the result
// carries NoPriorData and no changes.
func Detect(old *types.Snapshot, current types.Snapshot) types.ChangeSet {
	if old == nil {
		return types.ChangeSet{NoPriorData: true}
	}

	var changes types.ChangeSet

	if pc := detectPriceChange(old.Price, current.Price); pc != nil {
		changes.Price = pc
	}

	if old.Available != current.Available {
		status := types.BecameUnavailable
		if current.Available {
			status = types.BecameAvailable
		}
		changes.Availability = &types.AvailabilityChange{
			Old:    old.Available,
			New:    current.Available,
			Status: status,
		}
	}

	if old.Title != current.Title {
		changes.Title = &types.TitleChange{Old: old.Title, New: current.Title}
	}

	// Description is only flagged as changed, never diffed.
	if old.Description != current.Description {
		changes.DescriptionChanged = true
	}

	return changes
}

// detectPriceChange returns a price change when both prices are known and
// differ. The percent change is relative to the old price and is omitted when
// the old price is zero.
func detectPriceChange(oldPrice, newPrice *float64) *types.PriceChange {
	if oldPrice == nil || newPrice == nil {
		return nil
	}
	if *oldPrice == *newPrice {
		return nil
	}

	pc := &types.PriceChange{
		Old:           *oldPrice,
		New:           *newPrice,
		AbsoluteDelta: round2(*newPrice - *oldPrice),
	}

	if *oldPrice != 0 {
		raw := (*newPrice - *oldPrice) / *oldPrice * 100
		rounded := round2(raw)
		pc.RawPercent = &raw
		pc.Percent = &rounded
	}

	return pc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
