package temporalx

import "github.com/northlane/contentpool/internal/platform/envutil"

// Config is the Temporal connection configuration (spec §6's
// generate-sets endpoint runs asynchronously via a Temporal workflow).
type Config struct {
	Address   string
	Namespace string
	TaskQueue string
}

func LoadConfig() Config {
	return Config{
		Address:   envutil.Get("TEMPORAL_ADDRESS", ""),
		Namespace: envutil.Get("TEMPORAL_NAMESPACE", "contentpool"),
		TaskQueue: envutil.Get("TEMPORAL_TASK_QUEUE", "contentpool"),
	}
}
