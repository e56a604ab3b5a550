package workflows_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samirrijal/trackheat/internal/adapters/filecache"
	"github.com/samirrijal/trackheat/internal/adapters/gpx"
	"github.com/samirrijal/trackheat/internal/adapters/render"
	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/core/usecases"
	"github.com/samirrijal/trackheat/internal/pkg/codec"
	"github.com/samirrijal/trackheat/internal/workflows"
)

const ride = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="43.2630" lon="-2.9350"><time>2024-01-01T07:30:00Z</time></trkpt>
    <trkpt lat="43.2641" lon="-2.9342"><time>2024-01-05T07:30:05Z</time></trkpt>
    <trkpt lat="43.2700" lon="-2.9300"><time>2024-01-10T08:00:00Z</time></trkpt>
  </trkseg></trk>
</gpx>`

func newActivities(t *testing.T, root string) *workflows.RefreshActivities {
	t.Helper()
	renderer, err := render.New(render.Options{Radius: 8, Blur: 15, Zoom: 13, Tiles: "CartoDB positron"})
	if err != nil {
		t.Fatal(err)
	}
	svc := usecases.NewHeatmapService(
		usecases.NewCollector(gpx.NewReader(), usecases.CollectorOptions{Extension: ".gpx"}),
		filecache.NewMemory(codec.Proto{}),
		renderer, nil,
		usecases.HeatmapOptions{Root: root},
	)
	return &workflows.RefreshActivities{Heatmap: svc}
}

func TestActivities_EndToEnd(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "ride.gpx"), []byte(ride), 0o644); err != nil {
		t.Fatal(err)
	}
	a := newActivities(t, root)
	ctx := context.Background()

	summary, err := a.RefreshDataset(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if summary.Points != 3 {
		t.Errorf("expected 3 points, got %d", summary.Points)
	}

	if n, err := a.ArchivePoints(ctx); err != nil || n != 0 {
		t.Errorf("expected archive to be skipped, got n=%d err=%v", n, err)
	}

	out := filepath.Join(t.TempDir(), "heatmap.html")
	res, err := a.RenderHeatmap(ctx, workflows.RenderInput{Start: "2024-01-02", Output: out})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.Shown != 2 || res.Total != 3 || res.NoData {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Window != "2024-01-02..2024-01-10" {
		t.Errorf("expected clamped window, got %s", res.Window)
	}
	html, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "L.heatLayer") {
		t.Error("expected a heatmap document")
	}
}

func TestActivities_RenderNoData(t *testing.T) {
	a := newActivities(t, t.TempDir())
	out := filepath.Join(t.TempDir(), "heatmap.html")

	res, err := a.RenderHeatmap(context.Background(), workflows.RenderInput{Output: out})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.NoData {
		t.Error("expected NoData for an empty folder")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("expected no output file")
	}
}

func TestActivities_RenderBadDate(t *testing.T) {
	a := newActivities(t, t.TempDir())
	if _, err := a.RenderHeatmap(context.Background(), workflows.RenderInput{Start: "yesterday"}); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

type failingRenderer struct{ err error }

func (r failingRenderer) Render(ctx context.Context, points []domain.GeoPoint, w io.Writer) error {
	return r.err
}

func (failingRenderer) ContentType() string { return "text/html" }

func TestActivities_RenderFailure(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "ride.gpx"), []byte(ride), 0o644); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("template exploded")
	svc := usecases.NewHeatmapService(
		usecases.NewCollector(gpx.NewReader(), usecases.CollectorOptions{Extension: ".gpx"}),
		filecache.NewMemory(codec.Gob{}),
		failingRenderer{err: boom}, nil,
		usecases.HeatmapOptions{Root: root},
	)
	a := &workflows.RefreshActivities{Heatmap: svc}

	out := filepath.Join(t.TempDir(), "heatmap.html")
	res, err := a.RenderHeatmap(context.Background(), workflows.RenderInput{Output: out})
	if !errors.Is(err, boom) {
		t.Fatalf("expected renderer error, got %v", err)
	}
	if res.NoData {
		t.Error("expected NoData to stay false when rendering fails")
	}
}
