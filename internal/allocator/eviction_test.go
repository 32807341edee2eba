package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northlane/contentpool/internal/clients/redisx"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func snapshot(ids []string, ages map[string]time.Duration, now time.Time) redisx.LedgerSnapshot {
	assigned := make(map[string]time.Time, len(ages))
	for id, age := range ages {
		assigned[id] = now.Add(-age)
	}
	return redisx.LedgerSnapshot{SetIDs: ids, AssignedAt: assigned}
}

func TestEvict_CountCap_RemovesOldestFirst(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := snapshot([]string{"A", "B", "C"}, map[string]time.Duration{
		"A": time.Hour, "B": time.Hour, "C": time.Hour,
	}, now)
	cfg := EvictionConfig{MaxSetsPerCategory: 3, MaxAgeMonths: 2}

	// Scenario 3 from spec: cap=3, holding [A,B,C], one more arrives.
	snap.SetIDs = []string{"A", "B", "C"}
	result := Evict(snap, fixedClock{now}, cfg)
	require.Empty(t, result.RemovedSetIDs, "exactly at cap, no overflow yet")

	snap.SetIDs = []string{"A", "B", "C", "D"}
	snap.AssignedAt["D"] = now
	result = Evict(snap, fixedClock{now}, cfg)
	require.Equal(t, []string{"A"}, result.RemovedSetIDs)
	require.Equal(t, ReasonExceededCap, result.Reasons["A"])
}

func TestEvict_AgeCap_RemovesExpiredEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := snapshot([]string{"X", "Y", "Z"}, map[string]time.Duration{
		"X": 3 * 30 * 24 * time.Hour,
		"Y": 3 * 30 * 24 * time.Hour,
		"Z": 7 * 24 * time.Hour,
	}, now)
	cfg := EvictionConfig{MaxSetsPerCategory: 10, MaxAgeMonths: 2}

	result := Evict(snap, fixedClock{now}, cfg)
	require.ElementsMatch(t, []string{"X", "Y"}, result.RemovedSetIDs)
	require.Equal(t, ReasonAgeExpired, result.Reasons["X"])
	require.Equal(t, ReasonAgeExpired, result.Reasons["Y"])
	require.NotContains(t, result.Reasons, "Z")
}

func TestEvict_CountCapAppliesBeforeAgeCap(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := snapshot([]string{"A", "B", "C"}, map[string]time.Duration{
		"A": 3 * 30 * 24 * time.Hour,
		"B": time.Hour,
		"C": time.Hour,
	}, now)
	cfg := EvictionConfig{MaxSetsPerCategory: 2, MaxAgeMonths: 2}

	result := Evict(snap, fixedClock{now}, cfg)
	require.Equal(t, []string{"A"}, result.RemovedSetIDs)
	require.Equal(t, ReasonExceededCap, result.Reasons["A"], "already marked by count-cap; age-cap must not overwrite the reason")
}

func TestEvict_NoEntries_NoRemovals(t *testing.T) {
	now := time.Now()
	snap := redisx.LedgerSnapshot{AssignedAt: map[string]time.Time{}}
	result := Evict(snap, fixedClock{now}, EvictionConfig{MaxSetsPerCategory: 5, MaxAgeMonths: 2})
	require.Empty(t, result.RemovedSetIDs)
}

func TestEvict_MonthBoundary(t *testing.T) {
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	// AddDate(0, -2, 0) from Mar 31 lands on Jan 31 (Go's calendar
	// month-shift semantics apply, not a fixed day count).
	horizon := now.AddDate(0, -2, 0)
	justInside := horizon.Add(time.Hour)
	justOutside := horizon.Add(-time.Hour)

	snap := redisx.LedgerSnapshot{
		SetIDs: []string{"inside", "outside"},
		AssignedAt: map[string]time.Time{
			"inside":  justInside,
			"outside": justOutside,
		},
	}
	result := Evict(snap, fixedClock{now}, EvictionConfig{MaxSetsPerCategory: 10, MaxAgeMonths: 2})
	require.Equal(t, []string{"outside"}, result.RemovedSetIDs)
}
