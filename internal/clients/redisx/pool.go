package redisx

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/platform/poolerr"
)

// PoolMetadata is category metadata kept alongside the pool queue.
type PoolMetadata struct {
	Available     int64
	LastUpdated   time.Time
	LastBatchSize int64
}

// Pool is the Redis-backed Pool Index: a per-category FIFO of set-ids,
// plus the metadata and dedupe guard that make enqueue idempotent.
type Pool struct {
	rdb *goredis.Client
	log *logger.Logger
}

// enqueueScript appends set-ids not already known to the category's
// queue and updates metadata in the same atomic step (spec §4.2).
var enqueueScript = goredis.NewScript(`
local queueKey = KEYS[1]
local metaKey = KEYS[2]
local knownKey = KEYS[3]
local now = ARGV[1]
local added = 0
for i = 2, #ARGV do
	local setId = ARGV[i]
	if redis.call("SISMEMBER", knownKey, setId) == 0 then
		redis.call("RPUSH", queueKey, setId)
		redis.call("SADD", knownKey, setId)
		added = added + 1
	end
end
local available = redis.call("LLEN", queueKey)
redis.call("HSET", metaKey, "available", available, "lastUpdated", now, "lastBatchSize", added)
return added
`)

// dequeueScript pops the oldest set-id and keeps the dedupe guard and
// metadata consistent with the resulting queue length.
var dequeueScript = goredis.NewScript(`
local queueKey = KEYS[1]
local metaKey = KEYS[2]
local knownKey = KEYS[3]
local setId = redis.call("LPOP", queueKey)
if setId then
	redis.call("SREM", knownKey, setId)
end
local available = redis.call("LLEN", queueKey)
redis.call("HSET", metaKey, "available", available)
return setId
`)

// Enqueue appends setIds not already present in the category's queue,
// atomically updating metadata counters (spec §4.2, §4.1 step 6).
func (p *Pool) Enqueue(ctx context.Context, categoryID string, setIDs []string) error {
	if len(setIDs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(setIDs)+1)
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range setIDs {
		args = append(args, id)
	}
	keys := []string{poolQueueKey(categoryID), poolMetaKey(categoryID), poolKnownKey(categoryID)}
	if err := enqueueScript.Run(ctx, p.rdb, keys, args...).Err(); err != nil {
		p.log.Error("pool enqueue failed", "category", categoryID, "error", err)
		return fmt.Errorf("%w: %v", poolerr.ErrPoolUnavailable, err)
	}
	return nil
}

// PeekAll returns the category's set-ids in FIFO order without
// mutating the queue (spec §4.2's non-destructive read).
func (p *Pool) PeekAll(ctx context.Context, categoryID string) ([]string, error) {
	ids, err := p.rdb.LRange(ctx, poolQueueKey(categoryID), 0, -1).Result()
	if err != nil {
		p.log.Error("pool peek failed", "category", categoryID, "error", err)
		return nil, fmt.Errorf("%w: %v", poolerr.ErrPoolUnavailable, err)
	}
	return ids, nil
}

// DequeueOne destructively removes and returns the oldest set-id.
// Used by administrative drains, never by the Allocator.
func (p *Pool) DequeueOne(ctx context.Context, categoryID string) (string, error) {
	keys := []string{poolQueueKey(categoryID), poolMetaKey(categoryID), poolKnownKey(categoryID)}
	res, err := dequeueScript.Run(ctx, p.rdb, keys).Result()
	if err != nil {
		p.log.Error("pool dequeue failed", "category", categoryID, "error", err)
		return "", fmt.Errorf("%w: %v", poolerr.ErrPoolUnavailable, err)
	}
	if res == nil {
		return "", nil
	}
	id, ok := res.(string)
	if !ok {
		return "", nil
	}
	return id, nil
}

// Drop clears a category's queue, dedupe guard, and metadata.
func (p *Pool) Drop(ctx context.Context, categoryID string) error {
	pipe := p.rdb.TxPipeline()
	pipe.Del(ctx, poolQueueKey(categoryID))
	pipe.Del(ctx, poolKnownKey(categoryID))
	pipe.HSet(ctx, poolMetaKey(categoryID), "available", 0, "lastUpdated", time.Now().UTC().Format(time.RFC3339Nano), "lastBatchSize", 0)
	if _, err := pipe.Exec(ctx); err != nil {
		p.log.Error("pool drop failed", "category", categoryID, "error", err)
		return fmt.Errorf("%w: %v", poolerr.ErrPoolUnavailable, err)
	}
	return nil
}

// Metadata returns the category's {available, lastUpdated, lastBatchSize}.
func (p *Pool) Metadata(ctx context.Context, categoryID string) (PoolMetadata, error) {
	vals, err := p.rdb.HGetAll(ctx, poolMetaKey(categoryID)).Result()
	if err != nil {
		p.log.Error("pool metadata read failed", "category", categoryID, "error", err)
		return PoolMetadata{}, fmt.Errorf("%w: %v", poolerr.ErrPoolUnavailable, err)
	}
	meta := PoolMetadata{}
	if v, ok := vals["available"]; ok {
		meta.Available, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := vals["lastBatchSize"]; ok {
		meta.LastBatchSize, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := vals["lastUpdated"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			meta.LastUpdated = ts
		}
	}
	return meta, nil
}
