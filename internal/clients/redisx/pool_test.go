package redisx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/northlane/contentpool/internal/data/repos/testutil"
)

func TestPool_EnqueueIsIdempotentAndFIFO(t *testing.T) {
	rdb := testutil.Redis(t)
	pool := &Pool{rdb: rdb, log: testutil.Logger(t)}
	ctx := context.Background()
	category := "cat-pool-test"

	require.NoError(t, pool.Enqueue(ctx, category, []string{"S1", "S2", "S3"}))
	require.NoError(t, pool.Enqueue(ctx, category, []string{"S2", "S4"}))

	ids, err := pool.PeekAll(ctx, category)
	require.NoError(t, err)
	require.Equal(t, []string{"S1", "S2", "S3", "S4"}, ids, "duplicate enqueue of S2 must not reappear")

	meta, err := pool.Metadata(ctx, category)
	require.NoError(t, err)
	require.EqualValues(t, 4, meta.Available)
}

func TestPool_DequeueOneRemovesOldest(t *testing.T) {
	rdb := testutil.Redis(t)
	pool := &Pool{rdb: rdb, log: testutil.Logger(t)}
	ctx := context.Background()
	category := "cat-dequeue-test"

	require.NoError(t, pool.Enqueue(ctx, category, []string{"A", "B"}))
	id, err := pool.DequeueOne(ctx, category)
	require.NoError(t, err)
	require.Equal(t, "A", id)

	remaining, err := pool.PeekAll(ctx, category)
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, remaining)

	// A dropped id is no longer "known", so re-enqueueing it works.
	require.NoError(t, pool.Enqueue(ctx, category, []string{"A"}))
	remaining, err = pool.PeekAll(ctx, category)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "A"}, remaining)
}

func TestPool_Drop(t *testing.T) {
	rdb := testutil.Redis(t)
	pool := &Pool{rdb: rdb, log: testutil.Logger(t)}
	ctx := context.Background()
	category := "cat-drop-test"

	require.NoError(t, pool.Enqueue(ctx, category, []string{"A", "B"}))
	require.NoError(t, pool.Drop(ctx, category))

	remaining, err := pool.PeekAll(ctx, category)
	require.NoError(t, err)
	require.Empty(t, remaining)
}
