package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/trackheat/internal/adapters/postgres"
	"github.com/samirrijal/trackheat/internal/bootstrap"
	"github.com/samirrijal/trackheat/internal/pkg/config"
	"github.com/samirrijal/trackheat/internal/pkg/logging"
	"github.com/samirrijal/trackheat/internal/pkg/metrics"
)

// ingestor copies the collected dataset into the track_points table.
// Pass "refresh" to recollect the track folder instead of reading the cache.
func main() {
	cfg, err := config.Load("trackheat-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	p, err := bootstrap.NewPipeline(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	defer p.Close()

	refresh := len(os.Args) > 1 && os.Args[1] == "refresh"

	start := time.Now()
	load := p.Heatmap.Dataset
	if refresh {
		load = p.Heatmap.Refresh
	}
	ds, err := load(ctx)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}
	slog.Info("dataset loaded", "points", ds.Len(), "refresh", refresh, "duration", time.Since(start).String())

	repo := postgres.NewPointRepo(db)
	n, err := repo.ReplaceAll(ctx, ds)
	if err != nil {
		log.Fatalf("archive points: %v", err)
	}
	metrics.UpdateDBPoolMetrics(db.Pool.Stat())

	first, last, err := repo.DateRange(ctx)
	if err != nil {
		log.Fatalf("archive date range: %v", err)
	}
	attrs := []any{"points", n, "duration", time.Since(start).String()}
	if first != nil && last != nil {
		attrs = append(attrs, "first_date", first.String(), "last_date", last.String())
	}
	slog.Info("archive replaced", attrs...)
}
