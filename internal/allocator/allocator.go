package allocator

import (
	"context"
	"fmt"
	"time"

	"github.com/northlane/contentpool/internal/clients/redisx"
	"github.com/northlane/contentpool/internal/observability"
	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/platform/poolerr"
)

// Pool is the subset of the Pool Index the Allocator needs. Satisfied
// by *redisx.Pool; a fake in tests.
type Pool interface {
	PeekAll(ctx context.Context, categoryID string) ([]string, error)
}

// Ledger is the subset of the Allocation Ledger the Allocator needs.
// Satisfied by *redisx.Ledger; a fake in tests.
type Ledger interface {
	ReadSnapshot(ctx context.Context, userID, categoryID string) (redisx.LedgerSnapshot, error)
	ApplyEviction(ctx context.Context, userID, categoryID string, snap redisx.LedgerSnapshot, removed []string) error
	Append(ctx context.Context, userID, categoryID, setID string, now time.Time) error
	Categories(ctx context.Context, userID string) ([]string, error)
	Lock(ctx context.Context, userID, categoryID string, ttl time.Duration) (func(context.Context), error)
}

// ConfigSource supplies the runtime-mutable eviction caps (spec §6
// MAX_SETS_PER_CATEGORY, MAX_AGE_MONTHS), read fresh on every call so a
// hot-reloaded value takes effect immediately.
type ConfigSource interface {
	EvictionConfig() EvictionConfig
}

// Allocator orchestrates one access: evict, read Ledger, scan Pool,
// record the new assignment (spec §4.3).
type Allocator struct {
	pool    Pool
	ledger  Ledger
	cfg     ConfigSource
	clock   Clock
	locks   *shardedLocks
	metrics *observability.Metrics
	log     *logger.Logger
}

const lockTTL = 5 * time.Second

func New(pool Pool, ledger Ledger, cfg ConfigSource, metrics *observability.Metrics, log *logger.Logger) *Allocator {
	return &Allocator{
		pool:    pool,
		ledger:  ledger,
		cfg:     cfg,
		clock:   SystemClock{},
		locks:   newShardedLocks(256),
		metrics: metrics,
		log:     log.With("component", "Allocator"),
	}
}

// WithClock overrides the clock, for deterministic tests.
func (a *Allocator) WithClock(c Clock) *Allocator {
	a.clock = c
	return a
}

// AllocateNext implements spec §4.3's algorithm. When a set is found
// and the user's list is already at MaxSetsPerCategory, the oldest
// entries are evicted before the append so the list never exceeds the
// cap. A nil error with an empty string return means the pool has
// nothing left to offer this user (spec.NoSetsAvailable, not a
// request-level error).
func (a *Allocator) AllocateNext(ctx context.Context, userID, categoryID string) (string, error) {
	if userID == "" || categoryID == "" {
		return "", fmt.Errorf("%w: userId and categoryId are required", poolerr.ErrValidation)
	}

	release := a.locks.acquire(userID, categoryID)
	defer release()

	unlock, err := a.ledger.Lock(ctx, userID, categoryID, lockTTL)
	if err != nil {
		return "", err
	}
	defer unlock(context.WithoutCancel(ctx))

	snap, err := a.ledger.ReadSnapshot(ctx, userID, categoryID)
	if err != nil {
		return "", err
	}

	cfg := a.cfg.EvictionConfig()
	evicted := Evict(snap, a.clock, cfg)
	if len(evicted.RemovedSetIDs) > 0 {
		if err := a.ledger.ApplyEviction(ctx, userID, categoryID, snap, evicted.RemovedSetIDs); err != nil {
			return "", err
		}
		a.metrics.ObserveEviction(categoryID, "mixed", len(evicted.RemovedSetIDs))
	}

	held := make(map[string]struct{}, len(snap.SetIDs))
	removedSet := make(map[string]struct{}, len(evicted.RemovedSetIDs))
	for _, id := range evicted.RemovedSetIDs {
		removedSet[id] = struct{}{}
	}
	for _, id := range snap.SetIDs {
		if _, dropped := removedSet[id]; !dropped {
			held[id] = struct{}{}
		}
	}

	pooled, err := a.pool.PeekAll(ctx, categoryID)
	if err != nil {
		return "", err
	}

	var next string
	for _, id := range pooled {
		if _, already := held[id]; !already {
			next = id
			break
		}
	}
	if next == "" {
		a.metrics.ObserveAllocation(categoryID, "exhausted")
		return "", nil
	}

	// Make room for the new set so the list stays within the count cap
	// after the append: the oldest held entries go first.
	if limit := cfg.MaxSetsPerCategory; limit > 0 {
		kept := make([]string, 0, len(held))
		for _, id := range snap.SetIDs {
			if _, ok := held[id]; ok {
				kept = append(kept, id)
			}
		}
		if overflow := len(kept) + 1 - limit; overflow > 0 {
			keptSnap := redisx.LedgerSnapshot{SetIDs: kept, AssignedAt: snap.AssignedAt}
			if err := a.ledger.ApplyEviction(ctx, userID, categoryID, keptSnap, kept[:overflow]); err != nil {
				return "", err
			}
			a.metrics.ObserveEviction(categoryID, ReasonExceededCap, overflow)
		}
	}

	if err := a.ledger.Append(ctx, userID, categoryID, next, a.clock.Now()); err != nil {
		return "", err
	}
	a.metrics.ObserveAllocation(categoryID, "allocated")
	return next, nil
}

// BatchResult is the response shape from spec §6's POST /api/allocate.
type BatchResult struct {
	UserID     string
	Successful map[string]string
	Failed     map[string]string
}

// AllocateBatch composes AllocateNext per category; one category's
// failure does not fail the batch (spec §7).
func (a *Allocator) AllocateBatch(ctx context.Context, userID string, categoryIDs []string) BatchResult {
	result := BatchResult{
		UserID:     userID,
		Successful: map[string]string{},
		Failed:     map[string]string{},
	}
	for _, categoryID := range categoryIDs {
		setID, err := a.AllocateNext(ctx, userID, categoryID)
		if err != nil {
			a.log.Warn("allocate failed for category", "user", userID, "category", categoryID, "error", err)
			result.Failed[categoryID] = err.Error()
			continue
		}
		if setID == "" {
			result.Failed[categoryID] = poolerr.ErrNoSetsAvailable.Error()
			continue
		}
		result.Successful[categoryID] = setID
	}
	return result
}

// EvictUser runs the eviction decision across every category the user
// currently holds allocations in (spec §4.4 "invoked standalone").
func (a *Allocator) EvictUser(ctx context.Context, userID string) error {
	categories, err := a.ledger.Categories(ctx, userID)
	if err != nil {
		return err
	}
	for _, categoryID := range categories {
		release := a.locks.acquire(userID, categoryID)
		snap, err := a.ledger.ReadSnapshot(ctx, userID, categoryID)
		if err != nil {
			release()
			return err
		}
		evicted := Evict(snap, a.clock, a.cfg.EvictionConfig())
		if len(evicted.RemovedSetIDs) > 0 {
			if err := a.ledger.ApplyEviction(ctx, userID, categoryID, snap, evicted.RemovedSetIDs); err != nil {
				release()
				return err
			}
			a.metrics.ObserveEviction(categoryID, "standalone", len(evicted.RemovedSetIDs))
		}
		release()
	}
	return nil
}
