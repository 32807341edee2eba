package app

import (
	"github.com/gin-gonic/gin"

	internalhttp "github.com/northlane/contentpool/internal/http"
	httpH "github.com/northlane/contentpool/internal/http/handlers"
	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/temporalx"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Allocate     *httpH.AllocateHandler
	GenerateSets *httpH.GenerateSetsHandler
	Merge        *httpH.MergeHandler
}

func wireHandlers(clients Clients, repos Repos, core Core, log *logger.Logger) Handlers {
	log.Info("wiring handlers...")
	taskQueue := temporalx.LoadConfig().TaskQueue
	return Handlers{
		Health:       httpH.NewHealthHandler(),
		Allocate:     httpH.NewAllocateHandler(core.Allocator, core.Categories, log),
		GenerateSets: httpH.NewGenerateSetsHandler(clients.Temporal, taskQueue, core.Categories, log),
		Merge:        httpH.NewMergeHandler(clients.Redis.Ledger(), repos.Catalog, repos.ContentStore, log),
	}
}

func wireRouter(handlers Handlers, core Core, log *logger.Logger) *gin.Engine {
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		HealthHandler:       handlers.Health,
		AllocateHandler:     handlers.Allocate,
		GenerateSetsHandler: handlers.GenerateSets,
		MergeHandler:        handlers.Merge,
		Metrics:             core.Metrics,
		Log:                 log,
	})
}
