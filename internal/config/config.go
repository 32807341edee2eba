// Package config holds the two runtime-mutable eviction caps and the
// category table (spec §6).
package config

import (
	"sync/atomic"

	"github.com/northlane/contentpool/internal/allocator"
	"github.com/northlane/contentpool/internal/platform/envutil"
)

const (
	defaultMaxSetsPerCategory = 10
	defaultMaxAgeMonths       = 2
)

// Runtime holds MAX_SETS_PER_CATEGORY and MAX_AGE_MONTHS, read fresh
// on every allocation so a hot-reloaded value takes effect
// immediately (spec §6 "runtime-mutable").
type Runtime struct {
	cfg atomic.Value // EvictionConfig
}

func NewRuntime() *Runtime {
	r := &Runtime{}
	r.cfg.Store(allocator.EvictionConfig{
		MaxSetsPerCategory: envutil.Int("MAX_SETS_PER_CATEGORY", defaultMaxSetsPerCategory),
		MaxAgeMonths:       envutil.Int("MAX_AGE_MONTHS", defaultMaxAgeMonths),
	})
	return r
}

// EvictionConfig implements allocator.ConfigSource.
func (r *Runtime) EvictionConfig() allocator.EvictionConfig {
	return r.cfg.Load().(allocator.EvictionConfig)
}

// Set overwrites the current caps, e.g. from an admin CLI or a config
// file reload.
func (r *Runtime) Set(cfg allocator.EvictionConfig) {
	if cfg.MaxSetsPerCategory <= 0 {
		cfg.MaxSetsPerCategory = defaultMaxSetsPerCategory
	}
	if cfg.MaxAgeMonths <= 0 {
		cfg.MaxAgeMonths = defaultMaxAgeMonths
	}
	r.cfg.Store(cfg)
}

// Reload re-reads MAX_SETS_PER_CATEGORY / MAX_AGE_MONTHS from the
// process environment. It runs only when called; the fsnotify watcher
// in categories.go reloads the category table, not these caps.
func (r *Runtime) Reload() {
	r.Set(allocator.EvictionConfig{
		MaxSetsPerCategory: envutil.Int("MAX_SETS_PER_CATEGORY", defaultMaxSetsPerCategory),
		MaxAgeMonths:       envutil.Int("MAX_AGE_MONTHS", defaultMaxAgeMonths),
	})
}
