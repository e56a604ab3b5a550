package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/core/ports"
	"github.com/samirrijal/trackheat/internal/pkg/metrics"
	"github.com/samirrijal/trackheat/internal/pkg/telemetry"
)

// HeatmapOptions configures a HeatmapService.
type HeatmapOptions struct {
	Root string
	// FailOnCorrupt surfaces ErrCacheCorrupt instead of recollecting.
	FailOnCorrupt bool
	Filter        FilterOptions
	// CacheBackend labels cache metrics.
	CacheBackend string
	// Observer receives collection progress in addition to the publisher.
	Observer ports.ProgressObserver
}

// HeatmapService ties the collector, the dataset cache and the renderer
// together. The loaded dataset is kept in memory; loads and refreshes are
// serialized so only one collection pass runs at a time.
type HeatmapService struct {
	collector *Collector
	cache     ports.DatasetCache
	renderer  ports.Renderer
	publisher ports.EventPublisher
	opts      HeatmapOptions

	mu       sync.Mutex
	dataset  *domain.Dataset
	loadedAt time.Time
}

// NewHeatmapService creates a new HeatmapService. publisher may be nil.
func NewHeatmapService(
	collector *Collector,
	cache ports.DatasetCache,
	renderer ports.Renderer,
	publisher ports.EventPublisher,
	opts HeatmapOptions,
) *HeatmapService {
	if opts.CacheBackend == "" {
		opts.CacheBackend = "file"
	}
	return &HeatmapService{
		collector: collector,
		cache:     cache,
		renderer:  renderer,
		publisher: publisher,
		opts:      opts,
	}
}

// Dataset returns the full dataset, loading it from the cache or collecting
// it from the track folder on first use.
func (s *HeatmapService) Dataset(ctx context.Context) (*domain.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataset != nil {
		return s.dataset, nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "heatmap.LoadDataset")
	defer span.End()

	ds, err := s.cache.Load(ctx)
	switch {
	case err == nil:
		metrics.CacheHits.WithLabelValues(s.opts.CacheBackend).Inc()
		span.SetAttributes(attribute.String(telemetry.AttrCacheOutcome, "hit"))
		slog.Info("dataset loaded from cache", "points", ds.Len())
		s.setDataset(ds)
		return ds, nil

	case errors.Is(err, domain.ErrCacheMiss):
		metrics.CacheMisses.WithLabelValues(s.opts.CacheBackend).Inc()
		span.SetAttributes(attribute.String(telemetry.AttrCacheOutcome, "miss"))

	case errors.Is(err, domain.ErrCacheCorrupt):
		metrics.CacheCorrupt.WithLabelValues(s.opts.CacheBackend).Inc()
		span.SetAttributes(attribute.String(telemetry.AttrCacheOutcome, "corrupt"))
		if s.opts.FailOnCorrupt {
			span.RecordError(err)
			return nil, err
		}
		slog.Warn("cache is corrupt, recollecting", "error", err)

	default:
		span.RecordError(err)
		return nil, fmt.Errorf("load cache: %w", err)
	}

	return s.collectLocked(ctx)
}

// Refresh ignores any cached dataset, collects the folder again and
// overwrites the cache.
func (s *HeatmapService) Refresh(ctx context.Context) (*domain.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := telemetry.Tracer().Start(ctx, "heatmap.Refresh")
	defer span.End()

	return s.collectLocked(ctx)
}

func (s *HeatmapService) collectLocked(ctx context.Context) (*domain.Dataset, error) {
	ds, err := s.collector.Collect(ctx, s.opts.Root, ports.ProgressFunc(s.progress))
	if err != nil {
		return nil, err
	}

	if err := s.cache.Save(ctx, ds); err != nil {
		// The dataset is still usable; the next start collects again.
		slog.Warn("failed to save dataset cache", "error", err)
	}

	s.setDataset(ds)

	if s.publisher != nil {
		if err := s.publisher.PublishDatasetReady(ctx, Summarize(ds, s.opts.Filter.Location)); err != nil {
			slog.Warn("failed to publish dataset ready", "error", err)
		}
	}
	return ds, nil
}

func (s *HeatmapService) setDataset(ds *domain.Dataset) {
	s.dataset = ds
	s.loadedAt = time.Now()
	metrics.DatasetPoints.Set(float64(ds.Len()))
}

func (s *HeatmapService) progress(ctx context.Context, p domain.Progress) {
	if s.opts.Observer != nil {
		s.opts.Observer.FileProcessed(ctx, p)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishProgress(ctx, p); err != nil {
			slog.Debug("failed to publish progress", "path", p.Path, "error", err)
		}
	}
}

// LoadedAt returns when the in-memory dataset was last loaded or collected.
func (s *HeatmapService) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedAt
}

// Summary describes the full dataset.
func (s *HeatmapService) Summary(ctx context.Context) (domain.DatasetSummary, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	return Summarize(ds, s.opts.Filter.Location), nil
}

// ResolveWindow fills in and clamps w against the observed date range.
func (s *HeatmapService) ResolveWindow(ctx context.Context, w domain.TimeWindow) (domain.TimeWindow, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return w, err
	}
	return ClampToDataset(ds, w, s.opts.Filter.Location), nil
}

// Points returns the coordinates inside w along with the dataset size.
func (s *HeatmapService) Points(ctx context.Context, w domain.TimeWindow) (shown []domain.GeoPoint, total int, err error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, 0, err
	}

	_, span := telemetry.Tracer().Start(ctx, "heatmap.Filter")
	defer span.End()

	shown = FilterByWindow(ds, w, s.opts.Filter)
	span.SetAttributes(
		attribute.String(telemetry.AttrWindow, w.String()),
		attribute.Int(telemetry.AttrPoints, ds.Len()),
		attribute.Int(telemetry.AttrPointsShown, len(shown)),
	)
	return shown, ds.Len(), nil
}

// AllPoints returns every coordinate, dated or not, without any window.
func (s *HeatmapService) AllPoints(ctx context.Context) ([]domain.GeoPoint, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.GeoPoint, len(ds.Coordinates))
	copy(out, ds.Coordinates)
	return out, nil
}

// Render draws points to w. Empty input fails with domain.ErrEmptyDataset.
func (s *HeatmapService) Render(ctx context.Context, points []domain.GeoPoint, w io.Writer) error {
	ctx, span := telemetry.Tracer().Start(ctx, "heatmap.Render")
	defer span.End()

	if len(points) == 0 {
		metrics.Renders.WithLabelValues("empty").Inc()
		return domain.ErrEmptyDataset
	}

	cw := &countingWriter{w: w}
	if err := s.renderer.Render(ctx, points, cw); err != nil {
		metrics.Renders.WithLabelValues("error").Inc()
		span.RecordError(err)
		return fmt.Errorf("render heatmap: %w", err)
	}
	metrics.Renders.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int64(telemetry.AttrRenderedBytes, cw.n))
	return nil
}

// Heatmap filters the dataset by w and renders the result.
func (s *HeatmapService) Heatmap(ctx context.Context, w domain.TimeWindow, out io.Writer) (shown, total int, err error) {
	points, total, err := s.Points(ctx, w)
	if err != nil {
		return 0, 0, err
	}
	if err := s.Render(ctx, points, out); err != nil {
		return 0, total, err
	}
	return len(points), total, nil
}

// ContentType is the media type of rendered output.
func (s *HeatmapService) ContentType() string {
	return s.renderer.ContentType()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
