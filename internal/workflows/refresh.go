package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// RefreshInput is the input for the refresh workflow.
type RefreshInput struct {
	// Start and End bound the rendered window (YYYY-MM-DD). Empty means the
	// observed range of the dataset.
	Start  string
	End    string
	Output string
	// Archive also exports the dataset to the point archive.
	Archive bool
}

// RefreshResult reports what a refresh produced.
type RefreshResult struct {
	Summary  domain.DatasetSummary
	Archived int
	Render   RenderResult
}

// RefreshWorkflow recollects the track folder, overwrites the cache,
// optionally archives the points and renders the heatmap document.
// Each activity runs once; a failed pass waits for the next schedule.
func RefreshWorkflow(ctx workflow.Context, input RefreshInput) (RefreshResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting refresh workflow", "output", input.Output)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result RefreshResult

	// Step 1: Collect and cache
	if err := workflow.ExecuteActivity(ctx, "RefreshDataset").Get(ctx, &result.Summary); err != nil {
		return result, err
	}

	// Step 2: Archive
	if input.Archive {
		if err := workflow.ExecuteActivity(ctx, "ArchivePoints").Get(ctx, &result.Archived); err != nil {
			logger.Warn("archive failed, rendering anyway", "error", err)
		}
	}

	// Step 3: Render
	renderIn := RenderInput{Start: input.Start, End: input.End, Output: input.Output}
	if err := workflow.ExecuteActivity(ctx, "RenderHeatmap", renderIn).Get(ctx, &result.Render); err != nil {
		return result, err
	}

	logger.Info("Refresh finished", "points", result.Summary.Points, "shown", result.Render.Shown)
	return result, nil
}
