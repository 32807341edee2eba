package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron"
	"go.temporal.io/sdk/worker"

	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/temporalx"
	"github.com/northlane/contentpool/internal/temporalx/buildsets"
)

// App is the fully wired content-pool process: HTTP surface, the
// allocation engine, the set builder, and their backing stores.
type App struct {
	Log     *logger.Logger
	Cfg     Config
	Clients Clients
	Repos   Repos
	Core    Core
	Router  *gin.Engine

	buildsetsWorker worker.Worker
	builderCron     *cron.Cron
}

func New() (*App, error) {
	log, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)
	if cfg.LogMode != "" {
		if l2, err := logger.New(cfg.LogMode); err == nil {
			log = l2
		}
	}

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	repos := wireRepos(clients.DB(), log)

	core, err := wireCore(clients.DB(), clients.Redis, repos, cfg.CategoryTablePath, log)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	handlers := wireHandlers(clients, repos, core, log)
	router := wireRouter(handlers, core, log)

	return &App{
		Log:     log,
		Cfg:     cfg,
		Clients: clients,
		Repos:   repos,
		Core:    core,
		Router:  router,
	}, nil
}

// Run serves HTTP until ctx is canceled, then drains in-flight
// requests before returning. It also starts the buildsets Temporal
// worker if a Temporal client is configured, so a single process can
// both accept HTTP requests and run builder batches.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}

	if a.Clients.Temporal != nil {
		w, err := buildsets.RegisterAndStart(a.Clients.Temporal, a.Core.Builder, temporalx.LoadConfig().TaskQueue, a.Log)
		if err != nil {
			return fmt.Errorf("start buildsets worker: %w", err)
		}
		a.buildsetsWorker = w
	}

	if c := wireBuilderCron(a.Core, a.Log); c != nil {
		c.Start()
		a.builderCron = c
	}

	srv := &http.Server{Addr: a.Cfg.HTTPAddr, Handler: a.Router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if a.buildsetsWorker != nil {
			a.buildsetsWorker.Stop()
		}
		if a.builderCron != nil {
			a.builderCron.Stop()
		}
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Core.Close()
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
