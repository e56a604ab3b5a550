package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/core/ports"
	"github.com/samirrijal/trackheat/internal/core/usecases"
)

// RenderInput selects the window and destination of a render.
type RenderInput struct {
	Start  string
	End    string
	Output string
}

// RenderResult reports a render. NoData is set when the window held no
// points and nothing was written.
type RenderResult struct {
	Window string
	Shown  int
	Total  int
	NoData bool
}

// RefreshActivities holds the activity implementations for the refresh workflow.
type RefreshActivities struct {
	Heatmap *usecases.HeatmapService
	Archive ports.PointArchive
}

// RefreshDataset recollects the folder and overwrites the cache.
func (a *RefreshActivities) RefreshDataset(ctx context.Context) (domain.DatasetSummary, error) {
	if _, err := a.Heatmap.Refresh(ctx); err != nil {
		return domain.DatasetSummary{}, fmt.Errorf("refresh dataset: %w", err)
	}
	return a.Heatmap.Summary(ctx)
}

// ArchivePoints replaces the archived points with the current dataset.
func (a *RefreshActivities) ArchivePoints(ctx context.Context) (int, error) {
	if a.Archive == nil {
		slog.Info("no point archive configured, skipping")
		return 0, nil
	}
	ds, err := a.Heatmap.Dataset(ctx)
	if err != nil {
		return 0, err
	}
	n, err := a.Archive.ReplaceAll(ctx, ds)
	if err != nil {
		return 0, fmt.Errorf("archive points: %w", err)
	}
	return n, nil
}

// RenderHeatmap writes the heatmap for the requested window to Output.
func (a *RefreshActivities) RenderHeatmap(ctx context.Context, in RenderInput) (RenderResult, error) {
	w, err := domain.ParseWindow(in.Start, in.End)
	if err != nil {
		return RenderResult{}, err
	}
	w, err = a.Heatmap.ResolveWindow(ctx, w)
	if err != nil {
		return RenderResult{}, err
	}

	points, total, err := a.Heatmap.Points(ctx, w)
	if err != nil {
		return RenderResult{}, err
	}
	res := RenderResult{Window: w.String(), Shown: len(points), Total: total}
	if len(points) == 0 {
		res.NoData = true
		return res, nil
	}

	f, err := os.Create(in.Output)
	if err != nil {
		return res, fmt.Errorf("create %s: %w", in.Output, err)
	}
	if err := a.Heatmap.Render(ctx, points, f); err != nil {
		f.Close()
		return res, err
	}
	return res, f.Close()
}
