package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/platform/poolerr"
)

// LedgerSnapshot is the pure-data view of one (user, category) slice of
// the Allocation Ledger: the ordered set-id list and each entry's
// assignedAt timestamp. It carries no store handle, so it is safe to
// pass into the eviction decision function.
type LedgerSnapshot struct {
	SetIDs     []string
	AssignedAt map[string]time.Time
}

// Ledger is the Redis-backed Allocation Ledger (spec §3, §4.3, §4.4).
type Ledger struct {
	rdb *goredis.Client
	log *logger.Logger
}

// ReadSnapshot reads a user's current set-id list for a category and
// the matching assignedAt timestamps.
func (l *Ledger) ReadSnapshot(ctx context.Context, userID, categoryID string) (LedgerSnapshot, error) {
	raw, err := l.rdb.HGet(ctx, ledgerListsKey(userID), categoryID).Result()
	if err != nil && err != goredis.Nil {
		l.log.Error("ledger snapshot read failed", "user", userID, "category", categoryID, "error", err)
		return LedgerSnapshot{}, fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	snap := LedgerSnapshot{AssignedAt: map[string]time.Time{}}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &snap.SetIDs); err != nil {
			l.log.Error("ledger snapshot decode failed", "user", userID, "category", categoryID, "error", err)
			return LedgerSnapshot{}, fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
		}
	}
	if len(snap.SetIDs) == 0 {
		return snap, nil
	}
	fields := make([]string, len(snap.SetIDs))
	for i, id := range snap.SetIDs {
		fields[i] = ledgerTSField(categoryID, id)
	}
	vals, err := l.rdb.HMGet(ctx, ledgerTSKey(userID), fields...).Result()
	if err != nil {
		l.log.Error("ledger timestamp read failed", "user", userID, "category", categoryID, "error", err)
		return LedgerSnapshot{}, fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	for i, v := range vals {
		if v == nil {
			// Per spec §9: a crash between list-append and timestamp-write
			// leaves an entry with no timestamp. Treat as assigned now.
			snap.AssignedAt[snap.SetIDs[i]] = time.Now().UTC()
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			continue
		}
		snap.AssignedAt[snap.SetIDs[i]] = ts
	}
	return snap, nil
}

// ApplyEviction removes the given set-ids from the user's category list
// and deletes their assignedAt entries, updating counters accordingly
// (spec §4.4 "apply"). If the resulting list is empty, the category
// entry is deleted from the user's record.
func (l *Ledger) ApplyEviction(ctx context.Context, userID, categoryID string, snap LedgerSnapshot, removed []string) error {
	if len(removed) == 0 {
		return nil
	}
	removedSet := make(map[string]struct{}, len(removed))
	for _, id := range removed {
		removedSet[id] = struct{}{}
	}
	remaining := make([]string, 0, len(snap.SetIDs))
	for _, id := range snap.SetIDs {
		if _, drop := removedSet[id]; !drop {
			remaining = append(remaining, id)
		}
	}

	pipe := l.rdb.TxPipeline()
	if len(remaining) == 0 {
		pipe.HDel(ctx, ledgerListsKey(userID), categoryID)
		pipe.HDel(ctx, ledgerMetaKey(userID), metaCountField(categoryID))
	} else {
		encoded, err := json.Marshal(remaining)
		if err != nil {
			return fmt.Errorf("%w: %v", poolerr.ErrInvariantViolation, err)
		}
		pipe.HSet(ctx, ledgerListsKey(userID), categoryID, encoded)
		pipe.HSet(ctx, ledgerMetaKey(userID), metaCountField(categoryID), len(remaining))
	}
	tsFields := make([]string, len(removed))
	for i, id := range removed {
		tsFields[i] = ledgerTSField(categoryID, id)
	}
	pipe.HDel(ctx, ledgerTSKey(userID), tsFields...)
	pipe.HIncrBy(ctx, ledgerMetaKey(userID), metaFieldEvictedCount, int64(len(removed)))
	pipe.HSet(ctx, ledgerMetaKey(userID), metaFieldEvictedAt, time.Now().UTC().Format(time.RFC3339Nano))

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("ledger apply eviction failed", "user", userID, "category", categoryID, "error", err)
		return fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	return nil
}

// Append records a new assignment: setID joins the user's category
// list with assignedAt = now, and per-category/per-user metadata is
// updated in the same step (spec §4.3 step 5).
func (l *Ledger) Append(ctx context.Context, userID, categoryID, setID string, now time.Time) error {
	raw, err := l.rdb.HGet(ctx, ledgerListsKey(userID), categoryID).Result()
	if err != nil && err != goredis.Nil {
		return fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	var list []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
		}
	}
	for _, id := range list {
		if id == setID {
			return fmt.Errorf("%w: set %s already present for user %s category %s", poolerr.ErrInvariantViolation, setID, userID, categoryID)
		}
	}
	list = append(list, setID)
	encoded, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	nowStr := now.UTC().Format(time.RFC3339Nano)

	pipe := l.rdb.TxPipeline()
	pipe.HSet(ctx, ledgerListsKey(userID), categoryID, encoded)
	pipe.HSet(ctx, ledgerTSKey(userID), ledgerTSField(categoryID, setID), nowStr)
	pipe.HSet(ctx, ledgerMetaKey(userID), metaCountField(categoryID), len(list))
	pipe.HSet(ctx, ledgerMetaKey(userID), metaLastAssignedField(categoryID), setID)
	pipe.HSet(ctx, ledgerMetaKey(userID), metaLastUpdatedPerCatField(categoryID), nowStr)
	pipe.HSet(ctx, ledgerMetaKey(userID), metaFieldLastUpdated, nowStr)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("ledger append failed", "user", userID, "category", categoryID, "error", err)
		return fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	return nil
}

// LastAssigned returns the most recently assigned set-id for a
// (user, category) pair, or "" if none. This is the set the
// merge-surface joins against (spec §2 data-flow step 3: "a merge
// surface joins F's answer with B and A").
func (l *Ledger) LastAssigned(ctx context.Context, userID, categoryID string) (string, error) {
	setID, err := l.rdb.HGet(ctx, ledgerMetaKey(userID), metaLastAssignedField(categoryID)).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	return setID, nil
}

// Categories lists every category the user currently has allocations
// in, used by evictUser (spec §4.4 "invoked standalone").
func (l *Ledger) Categories(ctx context.Context, userID string) ([]string, error) {
	fields, err := l.rdb.HKeys(ctx, ledgerListsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	return fields, nil
}

// Reset clears a user's entire allocation record (administrative "reset
// user", spec §3 lifecycle).
func (l *Ledger) Reset(ctx context.Context, userID string) error {
	pipe := l.rdb.TxPipeline()
	pipe.Del(ctx, ledgerListsKey(userID))
	pipe.Del(ctx, ledgerTSKey(userID))
	pipe.Del(ctx, ledgerMetaKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
	}
	return nil
}

// unlockScript deletes a lock key only if it still holds our token, so
// a lock never releases work started by a different holder after its
// TTL expired and was reacquired.
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock takes a distributed per-(user,category) lock for the duration
// of eviction + allocation (spec §5 option (a)). Returns an unlock
// function; callers must defer it.
func (l *Ledger) Lock(ctx context.Context, userID, categoryID string, ttl time.Duration) (func(context.Context), error) {
	key := "lock:" + ledgerListsKey(userID) + ":" + categoryID
	token := uuid.NewString()

	deadline := time.Now().Add(5 * time.Second)
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", poolerr.ErrLedgerUnavailable, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: lock contended for user %s category %s", poolerr.ErrTimeout, userID, categoryID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}

	unlock := func(unlockCtx context.Context) {
		if err := unlockScript.Run(unlockCtx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("ledger lock release failed", "user", userID, "category", categoryID, "error", err)
		}
	}
	return unlock, nil
}
