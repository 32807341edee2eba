package app

import (
	"fmt"

	"gorm.io/gorm"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/northlane/contentpool/internal/clients/redisx"
	"github.com/northlane/contentpool/internal/data/db"
	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/temporalx"
)

type Clients struct {
	Postgres *db.PostgresService
	Redis    *redisx.Client
	Temporal temporalsdkclient.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("wiring clients...")

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return Clients{}, fmt.Errorf("postgres automigrate: %w", err)
	}

	rdb, err := redisx.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init temporal: %w", err)
	}

	return Clients{Postgres: pg, Redis: rdb, Temporal: tc}, nil
}

func (c *Clients) DB() *gorm.DB {
	if c == nil || c.Postgres == nil {
		return nil
	}
	return c.Postgres.DB()
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
}
