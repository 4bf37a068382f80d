package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/watchlist-monitor/internal/detect"
	"github.com/jonathan/watchlist-monitor/internal/types"
)

func price(v float64) *float64 {
	return &v
}

func item(target *float64) types.TrackedItem {
	return types.TrackedItem{
		ID:          "item-1",
		WatchlistID: "wl-1",
		Name:        "Vintage Camera",
		TargetPrice: target,
		Status:      types.ItemStatusActive,
	}
}

func priceChanges(oldPrice, newPrice float64) types.ChangeSet {
	old := types.Snapshot{Price: price(oldPrice), Available: true}
	current := types.Snapshot{Price: price(newPrice), Available: true}
	return detect.Detect(&old, current)
}

func TestDecide_TargetReachedAndMajorDropCoOccur(t *testing.T) {
	// 150 -> 90 is a 40% drop and also crosses the target of 100, so both
	// messages fire on the same run.
	decision := New(DefaultConfig()).Decide(item(price(100)), priceChanges(150, 90))

	require.True(t, decision.ShouldNotify)
	require.Len(t, decision.Messages, 2)
	assert.Equal(t, types.MessageTargetReached, decision.Messages[0].Type)
	assert.Equal(t, types.PriorityHigh, decision.Messages[0].Priority)
	assert.Equal(t, types.MessageMajorDrop, decision.Messages[1].Type)
	assert.Equal(t, types.PriorityMedium, decision.Messages[1].Priority)
	assert.Contains(t, decision.Messages[0].Text, "Vintage Camera")
}

func TestDecide_TargetReachedWithoutMajorDrop(t *testing.T) {
	// 100 -> 95 is only a 5% drop but crosses the target.
	decision := New(DefaultConfig()).Decide(item(price(95)), priceChanges(100, 95))

	require.True(t, decision.ShouldNotify)
	require.Len(t, decision.Messages, 1)
	assert.Equal(t, types.MessageTargetReached, decision.Messages[0].Type)
}

func TestDecide_MajorDropWithoutTarget(t *testing.T) {
	decision := New(DefaultConfig()).Decide(item(nil), priceChanges(200, 100))

	require.True(t, decision.ShouldNotify)
	require.Len(t, decision.Messages, 1)
	assert.Equal(t, types.MessageMajorDrop, decision.Messages[0].Type)
}

func TestDecide_MinorDropNoNotification(t *testing.T) {
	// A 10% drop above target triggers nothing.
	decision := New(DefaultConfig()).Decide(item(price(50)), priceChanges(100, 90))

	assert.False(t, decision.ShouldNotify)
	assert.Empty(t, decision.Messages)
}

func TestDecide_ExactThresholdDoesNotFire(t *testing.T) {
	// Exactly -20% is not strictly below the threshold.
	decision := New(DefaultConfig()).Decide(item(nil), priceChanges(100, 80))

	assert.False(t, decision.ShouldNotify)
}

func TestDecide_ZeroTargetPriceIgnored(t *testing.T) {
	decision := New(DefaultConfig()).Decide(item(price(0)), priceChanges(100, 95))

	assert.False(t, decision.ShouldNotify)
}

func TestDecide_BecameAvailable(t *testing.T) {
	old := types.Snapshot{Price: price(100), Available: false}
	current := types.Snapshot{Price: price(100), Available: true}
	changes := detect.Detect(&old, current)

	decision := New(DefaultConfig()).Decide(item(nil), changes)

	require.True(t, decision.ShouldNotify)
	require.Len(t, decision.Messages, 1)
	assert.Equal(t, types.MessageAvailable, decision.Messages[0].Type)
	assert.Equal(t, types.PriorityMedium, decision.Messages[0].Priority)
}

func TestDecide_BecameUnavailableSilent(t *testing.T) {
	old := types.Snapshot{Price: price(100), Available: true}
	current := types.Snapshot{Price: price(100), Available: false}
	changes := detect.Detect(&old, current)

	decision := New(DefaultConfig()).Decide(item(nil), changes)

	assert.False(t, decision.ShouldNotify)
}

func TestDecide_NoChanges(t *testing.T) {
	decision := New(DefaultConfig()).Decide(item(price(100)), types.ChangeSet{})

	assert.False(t, decision.ShouldNotify)
	assert.Empty(t, decision.Messages)
}

func TestDecide_NoPriorData(t *testing.T) {
	current := types.Snapshot{Price: price(50), Available: true}
	changes := detect.Detect(nil, current)

	decision := New(DefaultConfig()).Decide(item(price(100)), changes)

	assert.False(t, decision.ShouldNotify)
	assert.Empty(t, decision.Messages)
}

func TestDecide_ConfigurableThreshold(t *testing.T) {
	p := New(Config{MajorDropPercent: -5})

	decision := p.Decide(item(nil), priceChanges(100, 90))

	require.True(t, decision.ShouldNotify)
	assert.Equal(t, types.MessageMajorDrop, decision.Messages[0].Type)
}
