package buildsets

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow runs one Set Builder batch across every category in
// params.CategoryIDs and returns the per-category outcome. It is
// deliberately a single activity, not a saga: a builder run either
// completes or it doesn't, and a failed run is safely re-triggered by
// calling POST /api/generate-sets again since the builder resumes from
// each category's watermark.
func Workflow(ctx workflow.Context, params Params) (Result, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})

	var out Result
	err := workflow.ExecuteActivity(ctx, ActivityName, params).Get(ctx, &out)
	return out, err
}
