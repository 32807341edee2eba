package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpH "github.com/northlane/contentpool/internal/http/handlers"
	httpMW "github.com/northlane/contentpool/internal/http/middleware"
	"github.com/northlane/contentpool/internal/observability"
	"github.com/northlane/contentpool/internal/platform/logger"
)

// RouterConfig wires the content-pool's HTTP surface (spec §6): the
// three operations (generate-sets, allocate, merge) plus health and
// metrics endpoints.
type RouterConfig struct {
	HealthHandler       *httpH.HealthHandler
	AllocateHandler     *httpH.AllocateHandler
	GenerateSetsHandler *httpH.GenerateSetsHandler
	MergeHandler        *httpH.MergeHandler

	Metrics *observability.Metrics
	Log     *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())
	r.Use(httpMW.Metrics(cfg.Metrics))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		if cfg.GenerateSetsHandler != nil {
			api.POST("/generate-sets", cfg.GenerateSetsHandler.GenerateSets)
		}
		if cfg.AllocateHandler != nil {
			api.POST("/allocate", cfg.AllocateHandler.Allocate)
		}
		if cfg.MergeHandler != nil {
			api.POST("/merge", cfg.MergeHandler.Merge)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "not found", "code": "not_found"}})
	})

	return r
}
