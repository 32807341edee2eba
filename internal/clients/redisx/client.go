// Package redisx implements the Pool Index and Allocation Ledger on top
// of Redis: the hot, per-request paths named with concrete key shapes.
// Pool enqueue and dequeue are each one Lua script; Pool.Drop and the
// Ledger's multi-key writes are MULTI/EXEC transactions (TxPipeline).
package redisx

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/northlane/contentpool/internal/platform/envutil"
	"github.com/northlane/contentpool/internal/platform/logger"
)

// Client wraps a go-redis client and constructs the Pool and Ledger
// backed by it.
type Client struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewClient(logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	serviceLog := logg.With("service", "RedisxClient")

	addr := strings.TrimSpace(envutil.Get("REDIS_ADDR", "localhost:6379"))
	password := envutil.Get("REDIS_PASSWORD", "")
	db := envutil.Int("REDIS_DB", 0)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{rdb: rdb, log: serviceLog}, nil
}

func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) Pool() *Pool     { return &Pool{rdb: c.rdb, log: c.log.With("component", "Pool")} }
func (c *Client) Ledger() *Ledger { return &Ledger{rdb: c.rdb, log: c.log.With("component", "Ledger")} }
