package usecases

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/core/ports"
	"github.com/samirrijal/trackheat/internal/pkg/metrics"
	"github.com/samirrijal/trackheat/internal/pkg/telemetry"
)

// CollectorOptions configures a collection pass.
type CollectorOptions struct {
	// Extension is matched case-sensitively against the end of each file name.
	Extension string
	// SkipFailures logs and skips unreadable files instead of aborting the pass.
	SkipFailures bool
}

// Collector walks a folder tree and extracts every track point it finds.
type Collector struct {
	reader ports.TrackReader
	opts   CollectorOptions
}

// NewCollector creates a new Collector.
func NewCollector(reader ports.TrackReader, opts CollectorOptions) *Collector {
	if opts.Extension == "" {
		opts.Extension = ".gpx"
	}
	return &Collector{reader: reader, opts: opts}
}

// Discover returns every matching file under root in lexical walk order.
func (c *Collector) Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), c.opts.Extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w: %v", root, domain.ErrIO, err)
	}
	return files, nil
}

// Collect reads every matching file under root into one dataset. obs may be
// nil; it is told about each file after the file is done.
func (c *Collector) Collect(ctx context.Context, root string, obs ports.ProgressObserver) (*domain.Dataset, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "collector.Collect")
	defer span.End()

	start := time.Now()
	defer func() { metrics.CollectDuration.Observe(time.Since(start).Seconds()) }()

	files, err := c.Discover(root)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrFilesTotal, len(files)))

	ds := domain.NewDataset(0)
	for i, path := range files {
		points, err := c.reader.Read(ctx, path)
		progress := domain.Progress{
			FilesProcessed: i + 1,
			FilesTotal:     len(files),
			Path:           path,
			Points:         len(points),
		}

		if err != nil {
			metrics.FilesFailed.WithLabelValues(failureReason(err)).Inc()
			if !c.opts.SkipFailures {
				span.RecordError(err)
				return nil, fmt.Errorf("collect %s: %w", path, err)
			}
			slog.Warn("skipping unreadable track", "path", path, "error", err)
			progress.Points = 0
			progress.Skipped = true
			progress.Error = err.Error()
		} else {
			metrics.FilesParsed.Inc()
			metrics.PointsCollected.Add(float64(len(points)))
			ds.Append(points...)
		}

		if obs != nil {
			obs.FileProcessed(ctx, progress)
		}
	}

	span.SetAttributes(attribute.Int(telemetry.AttrPoints, ds.Len()))
	slog.Info("collection finished", "root", root, "files", len(files), "points", ds.Len(),
		"duration", time.Since(start).Round(time.Millisecond))
	return ds, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrParse):
		return "parse"
	case errors.Is(err, domain.ErrIO):
		return "io"
	default:
		return "other"
	}
}
