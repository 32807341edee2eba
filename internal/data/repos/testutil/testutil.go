// Package testutil provides shared skip-pattern setup for integration
// tests: a real Postgres and a real Redis are used when available,
// and the tests skip cleanly otherwise.
package testutil

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/northlane/contentpool/internal/data/db"
	"github.com/northlane/contentpool/internal/platform/logger"
)

var (
	errMissingPostgresDSN = errors.New("missing TEST_POSTGRES_DSN")
	errMissingRedisAddr   = errors.New("missing TEST_REDIS_ADDR")
)

var (
	dbOnce sync.Once
	gdb    *gorm.DB
	dbErr  error

	redisOnce sync.Once
	rdb       *goredis.Client
	redisErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingPostgresDSN
			return
		}
		var err error
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			dbErr = err
			return
		}
		if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			dbErr = err
			return
		}
		if err := db.AutoMigrateAll(gdb); err != nil {
			dbErr = err
			return
		}
	})

	if errors.Is(dbErr, errMissingPostgresDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return gdb
}

func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// Redis returns a live client backed by TEST_REDIS_ADDR, skipping the
// test when it is unset.
func Redis(tb testing.TB) *goredis.Client {
	tb.Helper()

	redisOnce.Do(func() {
		addr := os.Getenv("TEST_REDIS_ADDR")
		if addr == "" {
			redisErr = errMissingRedisAddr
			return
		}
		rdb = goredis.NewClient(&goredis.Options{Addr: addr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			redisErr = err
			return
		}
	})

	if errors.Is(redisErr, errMissingRedisAddr) {
		tb.Skip("set TEST_REDIS_ADDR to run redisx integration tests")
	}
	if redisErr != nil {
		tb.Fatalf("failed to init test redis: %v", redisErr)
	}
	tb.Cleanup(func() {
		keys, _ := rdb.Keys(context.Background(), "pool:*").Result()
		allocKeys, _ := rdb.Keys(context.Background(), "alloc:*").Result()
		lockKeys, _ := rdb.Keys(context.Background(), "lock:*").Result()
		keys = append(keys, allocKeys...)
		keys = append(keys, lockKeys...)
		if len(keys) > 0 {
			_ = rdb.Del(context.Background(), keys...).Err()
		}
	})
	return rdb
}
