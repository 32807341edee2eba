// Package allocator implements the Eviction Policy and the Allocator
// that orchestrates it against the Pool Index and Allocation Ledger
// (spec §4.3, §4.4). Evict is a pure function so it can be
// unit-tested without any store.
package allocator

import (
	"time"

	"github.com/northlane/contentpool/internal/clients/redisx"
)

// EvictionConfig holds the two runtime-mutable caps (spec §4.4).
type EvictionConfig struct {
	MaxSetsPerCategory int
	MaxAgeMonths       int
}

// ReasonExceededCap and ReasonAgeExpired are the two eviction reason
// tags an entry can be marked with (spec §4.4).
const (
	ReasonExceededCap = "EXCEEDED_CAP"
	ReasonAgeExpired  = "AGE_EXPIRED"
)

// Clock is injected so eviction is deterministic and testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// EvictionResult is what Evict decided to remove and why.
type EvictionResult struct {
	RemovedSetIDs []string
	Reasons       map[string]string
}

// Evict applies the count-cap then the age-cap to a ledger snapshot,
// in that order, each pass skipping entries already marked (spec
// §4.4). It does not touch any store; the caller applies the removal.
func Evict(snap redisx.LedgerSnapshot, clock Clock, cfg EvictionConfig) EvictionResult {
	result := EvictionResult{Reasons: map[string]string{}}
	marked := make(map[string]struct{}, len(snap.SetIDs))

	n := len(snap.SetIDs)
	if cfg.MaxSetsPerCategory > 0 && n > cfg.MaxSetsPerCategory {
		cut := n - cfg.MaxSetsPerCategory
		for i := 0; i < cut; i++ {
			id := snap.SetIDs[i]
			marked[id] = struct{}{}
			result.Reasons[id] = ReasonExceededCap
		}
	}

	if cfg.MaxAgeMonths > 0 {
		horizon := monthsAgo(clock.Now(), cfg.MaxAgeMonths)
		for _, id := range snap.SetIDs {
			if _, already := marked[id]; already {
				continue
			}
			assignedAt, ok := snap.AssignedAt[id]
			if !ok {
				continue
			}
			if assignedAt.Before(horizon) {
				marked[id] = struct{}{}
				result.Reasons[id] = ReasonAgeExpired
			}
		}
	}

	for _, id := range snap.SetIDs {
		if _, ok := marked[id]; ok {
			result.RemovedSetIDs = append(result.RemovedSetIDs, id)
		}
	}
	return result
}

// monthsAgo computes now - n months as a calendar-month shift, not a
// fixed day count (spec §9 "Timestamps").
func monthsAgo(now time.Time, n int) time.Time {
	return now.AddDate(0, -n, 0)
}
