package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samirrijal/trackheat/internal/adapters/filecache"
	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/core/usecases"
	"github.com/samirrijal/trackheat/internal/pkg/codec"
)

func datedReader(ctx context.Context, path string) ([]domain.GpsPoint, error) {
	return []domain.GpsPoint{
		{Lat: 43.26, Lon: -2.93, Time: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{Lat: 43.27, Lon: -2.92, Time: time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)},
		{Lat: 43.28, Lon: -2.91, Time: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)},
	}, nil
}

type fixture struct {
	reader    *mockReader
	renderer  *mockRenderer
	publisher *mockPublisher
	cache     *filecache.Memory
	svc       *usecases.HeatmapService
}

func newFixture(t *testing.T, opts usecases.HeatmapOptions) *fixture {
	t.Helper()
	f := &fixture{
		reader:    &mockReader{readFn: datedReader},
		renderer:  &mockRenderer{},
		publisher: &mockPublisher{},
		cache:     filecache.NewMemory(codec.Gob{}),
	}
	if opts.Root == "" {
		opts.Root = makeTree(t, "ride.gpx")
	}
	collector := usecases.NewCollector(f.reader, usecases.CollectorOptions{})
	f.svc = usecases.NewHeatmapService(collector, f.cache, f.renderer, f.publisher, opts)
	return f
}

func TestHeatmapService_CollectsOnMissAndSaves(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{})
	ctx := context.Background()

	ds, err := f.svc.Dataset(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", ds.Len())
	}
	if ok, _ := f.cache.Exists(ctx); !ok {
		t.Error("expected dataset to be cached")
	}
	if len(f.publisher.progress) != 1 || len(f.publisher.ready) != 1 {
		t.Errorf("expected 1 progress and 1 ready event, got %d and %d",
			len(f.publisher.progress), len(f.publisher.ready))
	}

	// Second call is served from memory.
	if _, err := f.svc.Dataset(ctx); err != nil {
		t.Fatal(err)
	}
	if f.reader.callCount() != 1 {
		t.Errorf("expected 1 read, got %d", f.reader.callCount())
	}
}

func TestHeatmapService_CacheHitSkipsCollector(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{})
	ctx := context.Background()

	cached := domain.NewDataset(1)
	cached.Append(domain.GpsPoint{Lat: 1, Lon: 1, Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	if err := f.cache.Save(ctx, cached); err != nil {
		t.Fatal(err)
	}

	ds, err := f.svc.Dataset(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 1 {
		t.Errorf("expected cached dataset, got %d points", ds.Len())
	}
	if f.reader.callCount() != 0 {
		t.Errorf("expected collector not to run, got %d reads", f.reader.callCount())
	}
}

func TestHeatmapService_CorruptCacheRecollectsAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "gpx_cache.bin")
	if err := os.WriteFile(cachePath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	store := filecache.New(cachePath, codec.Gob{})
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrCacheCorrupt) {
		t.Fatalf("expected ErrCacheCorrupt before recollect, got %v", err)
	}

	reader := &mockReader{readFn: datedReader}
	svc := usecases.NewHeatmapService(
		usecases.NewCollector(reader, usecases.CollectorOptions{}),
		store, &mockRenderer{}, nil,
		usecases.HeatmapOptions{Root: makeTree(t, "a.gpx")},
	)

	ds, err := svc.Dataset(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("expected 3 points, got %d", ds.Len())
	}

	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("expected cache to be overwritten, got %v", err)
	}
	if reloaded.Len() != 3 {
		t.Errorf("expected 3 cached points, got %d", reloaded.Len())
	}
}

func TestHeatmapService_CorruptCacheFailPolicy(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{FailOnCorrupt: true})
	f.cache.Corrupt([]byte("garbage"))

	_, err := f.svc.Dataset(context.Background())
	if !errors.Is(err, domain.ErrCacheCorrupt) {
		t.Fatalf("expected ErrCacheCorrupt, got %v", err)
	}
	if f.reader.callCount() != 0 {
		t.Errorf("expected no collection, got %d reads", f.reader.callCount())
	}
}

func TestHeatmapService_RefreshBypassesCache(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{})
	ctx := context.Background()

	stale := domain.NewDataset(1)
	stale.Append(domain.GpsPoint{Lat: 9, Lon: 9})
	if err := f.cache.Save(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Dataset(ctx); err != nil {
		t.Fatal(err)
	}

	ds, err := f.svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("expected 3 fresh points, got %d", ds.Len())
	}
	cached, _ := f.cache.Load(ctx)
	if cached.Len() != 3 {
		t.Errorf("expected cache overwritten with 3 points, got %d", cached.Len())
	}
	current, _ := f.svc.Dataset(ctx)
	if current.Len() != 3 {
		t.Errorf("expected in-memory dataset replaced, got %d points", current.Len())
	}
}

func TestHeatmapService_Heatmap(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{})
	ctx := context.Background()

	var buf bytes.Buffer
	w := domain.TimeWindow{Start: domain.MustDate(2024, 1, 2), End: domain.MustDate(2024, 1, 10)}
	shown, total, err := f.svc.Heatmap(ctx, w, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shown != 2 || total != 3 {
		t.Errorf("expected 2 of 3 points shown, got %d of %d", shown, total)
	}
	if len(f.renderer.rendered) != 2 || f.renderer.rendered[0].Lat != 43.27 {
		t.Errorf("unexpected rendered points %+v", f.renderer.rendered)
	}
	if !strings.Contains(buf.String(), "2 points") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestHeatmapService_EmptyFolderHasNoData(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{Root: t.TempDir()})

	var buf bytes.Buffer
	_, total, err := f.svc.Heatmap(context.Background(), domain.TimeWindow{}, &buf)
	if !errors.Is(err, domain.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	if total != 0 {
		t.Errorf("expected 0 total points, got %d", total)
	}
	if f.renderer.rendered != nil {
		t.Error("expected renderer not to be called")
	}
}

func TestHeatmapService_ResolveWindow(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{})

	w, err := f.svc.ResolveWindow(context.Background(), domain.TimeWindow{
		End: domain.MustDate(2030, 1, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if w.String() != "2024-01-01..2024-01-10" {
		t.Errorf("expected clamped window, got %s", w)
	}
}

func TestHeatmapService_SerializesLoads(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Dataset(context.Background())
		}()
	}
	wg.Wait()

	if f.reader.callCount() != 1 {
		t.Errorf("expected one collection pass, got %d reads", f.reader.callCount())
	}
}

func TestHeatmapService_Summary(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{})

	s, err := f.svc.Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Points != 3 || s.FirstDate != "2024-01-01" {
		t.Errorf("unexpected summary %+v", s)
	}
	if f.svc.LoadedAt().IsZero() {
		t.Error("expected load time to be set")
	}
}

func TestHeatmapService_AllPointsIncludesUndated(t *testing.T) {
	f := newFixture(t, usecases.HeatmapOptions{})
	f.reader.readFn = func(ctx context.Context, path string) ([]domain.GpsPoint, error) {
		return []domain.GpsPoint{
			{Lat: 1, Lon: 2},
			{Lat: 3, Lon: 4, Time: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		}, nil
	}

	points, err := f.svc.AllPoints(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0] != (domain.GeoPoint{Lat: 1, Lon: 2}) {
		t.Errorf("expected undated point first, got %+v", points[0])
	}

	// The returned slice is a copy.
	points[0].Lat = 99
	again, _ := f.svc.AllPoints(context.Background())
	if again[0].Lat != 1 {
		t.Errorf("expected dataset unchanged, got %+v", again[0])
	}
}
