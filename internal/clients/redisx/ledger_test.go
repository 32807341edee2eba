package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northlane/contentpool/internal/data/repos/testutil"
)

func TestLedger_AppendAndReadSnapshot(t *testing.T) {
	rdb := testutil.Redis(t)
	ledger := &Ledger{rdb: rdb, log: testutil.Logger(t)}
	ctx := context.Background()
	userID, category := "user-ledger-test", "cat-X"

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, ledger.Append(ctx, userID, category, "S1", now))
	require.NoError(t, ledger.Append(ctx, userID, category, "S2", now.Add(time.Minute)))

	snap, err := ledger.ReadSnapshot(ctx, userID, category)
	require.NoError(t, err)
	require.Equal(t, []string{"S1", "S2"}, snap.SetIDs)
	require.WithinDuration(t, now, snap.AssignedAt["S1"], time.Second)
}

func TestLedger_AppendRejectsDuplicate(t *testing.T) {
	rdb := testutil.Redis(t)
	ledger := &Ledger{rdb: rdb, log: testutil.Logger(t)}
	ctx := context.Background()
	userID, category := "user-ledger-dup", "cat-X"

	require.NoError(t, ledger.Append(ctx, userID, category, "S1", time.Now()))
	err := ledger.Append(ctx, userID, category, "S1", time.Now())
	require.Error(t, err)
}

func TestLedger_ApplyEvictionClearsEmptyCategory(t *testing.T) {
	rdb := testutil.Redis(t)
	ledger := &Ledger{rdb: rdb, log: testutil.Logger(t)}
	ctx := context.Background()
	userID, category := "user-ledger-evict", "cat-X"

	require.NoError(t, ledger.Append(ctx, userID, category, "S1", time.Now()))
	snap, err := ledger.ReadSnapshot(ctx, userID, category)
	require.NoError(t, err)

	require.NoError(t, ledger.ApplyEviction(ctx, userID, category, snap, []string{"S1"}))

	after, err := ledger.ReadSnapshot(ctx, userID, category)
	require.NoError(t, err)
	require.Empty(t, after.SetIDs)
}

func TestLedger_LockSerializesSameUserCategory(t *testing.T) {
	rdb := testutil.Redis(t)
	ledger := &Ledger{rdb: rdb, log: testutil.Logger(t)}
	ctx := context.Background()

	unlock, err := ledger.Lock(ctx, "user-lock-test", "cat-X", 2*time.Second)
	require.NoError(t, err)
	defer unlock(ctx)

	shortCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = ledger.Lock(shortCtx, "user-lock-test", "cat-X", 2*time.Second)
	require.Error(t, err, "a second lock on the same (user,category) must not be grantable while held")
}
