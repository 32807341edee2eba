package buildsets

import (
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/northlane/contentpool/internal/builder"
	"github.com/northlane/contentpool/internal/platform/logger"
)

// RegisterAndStart starts a Temporal worker on taskQueue that can run
// the buildsets workflow and its backing activity. Callers own the
// returned worker's lifetime and should call Stop on shutdown.
func RegisterAndStart(tc temporalsdkclient.Client, b *builder.Builder, taskQueue string, log *logger.Logger) (worker.Worker, error) {
	acts := &Activities{Builder: b, Log: log}

	w := worker.New(tc, taskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(acts.Run, activity.RegisterOptions{Name: ActivityName})

	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
