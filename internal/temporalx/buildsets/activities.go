package buildsets

import (
	"context"
	"fmt"

	"github.com/northlane/contentpool/internal/builder"
	"github.com/northlane/contentpool/internal/platform/logger"
)

// Activities wraps the Builder so a single batch run can be driven as
// one Temporal activity. A builder run is a single bounded operation
// with no user-facing resumable state, so it needs none of the
// multi-stage tick/resume machinery a longer-running job would.
type Activities struct {
	Builder *builder.Builder
	Log     *logger.Logger
}

func (a *Activities) Run(ctx context.Context, params Params) (Result, error) {
	if a == nil || a.Builder == nil {
		return Result{}, fmt.Errorf("buildsets: activity not configured")
	}

	report, err := a.Builder.Build(ctx, params.CategoryIDs, params.NumSetsPerCategory, params.ItemsPerSet)
	if err != nil {
		return Result{}, err
	}

	out := Result{PerCategory: make(map[string]CategoryResult, len(report.PerCategory))}
	for categoryID, cr := range report.PerCategory {
		res := CategoryResult{
			SetsEmitted: cr.SetsEmitted,
			Watermark:   cr.Watermark,
			Shortfall:   cr.Shortfall,
		}
		if cr.Err != nil {
			res.Error = cr.Err.Error()
		}
		out.PerCategory[categoryID] = res
	}
	return out, nil
}
