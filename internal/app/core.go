package app

import (
	"gorm.io/gorm"

	"github.com/northlane/contentpool/internal/allocator"
	"github.com/northlane/contentpool/internal/builder"
	"github.com/northlane/contentpool/internal/clients/redisx"
	appconfig "github.com/northlane/contentpool/internal/config"
	"github.com/northlane/contentpool/internal/observability"
	"github.com/northlane/contentpool/internal/platform/logger"
)

// Core holds the allocation engine and set builder plus the runtime
// config they read (spec §2's components C through G).
type Core struct {
	Runtime    *appconfig.Runtime
	Categories *appconfig.CategoryTable
	Metrics    *observability.Metrics
	Allocator  *allocator.Allocator
	Builder    *builder.Builder
}

func wireCore(gdb *gorm.DB, rdb *redisx.Client, repos Repos, categoryTablePath string, log *logger.Logger) (Core, error) {
	log.Info("wiring core...")

	runtime := appconfig.NewRuntime()

	categories, err := appconfig.LoadCategoryTable(categoryTablePath, log)
	if err != nil {
		return Core{}, err
	}
	if err := categories.Watch(); err != nil {
		log.Warn("category table hot-reload disabled", "error", err)
	}

	metrics := observability.New(nil)

	alloc := allocator.New(rdb.Pool(), rdb.Ledger(), runtime, metrics, log)
	build := builder.New(gdb, repos.ContentStore, repos.Catalog, rdb.Pool(), metrics, log)

	return Core{
		Runtime:    runtime,
		Categories: categories,
		Metrics:    metrics,
		Allocator:  alloc,
		Builder:    build,
	}, nil
}

func (c *Core) Close() {
	if c == nil || c.Categories == nil {
		return
	}
	c.Categories.Stop()
}
