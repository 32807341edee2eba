package app

import (
	"github.com/northlane/contentpool/internal/platform/envutil"
	"github.com/northlane/contentpool/internal/platform/logger"
)

// Config holds the process-level settings that don't belong to any one
// component (spec §6's runtime-mutable knobs live in internal/config
// instead, since they can change without a restart).
type Config struct {
	HTTPAddr          string
	CategoryTablePath string
	LogMode           string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr:          envutil.Get("HTTP_ADDR", ":8080"),
		CategoryTablePath: envutil.Get("CATEGORY_TABLE_PATH", "config/categories.yaml"),
		LogMode:           envutil.Get("LOG_MODE", "development"),
	}
}
