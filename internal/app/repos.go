package app

import (
	"gorm.io/gorm"

	"github.com/northlane/contentpool/internal/data/repos/catalog"
	"github.com/northlane/contentpool/internal/data/repos/contentstore"
	"github.com/northlane/contentpool/internal/platform/logger"
)

type Repos struct {
	ContentStore contentstore.Repo
	Catalog      catalog.Repo
}

func wireRepos(gdb *gorm.DB, log *logger.Logger) Repos {
	log.Info("wiring repos...")
	return Repos{
		ContentStore: contentstore.New(gdb, log),
		Catalog:      catalog.New(gdb, log),
	}
}
