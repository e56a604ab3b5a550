// Package bootstrap wires the heatmap pipeline from configuration. Every
// command builds the same collector, cache and renderer through here.
package bootstrap

import (
	"fmt"

	"github.com/samirrijal/trackheat/internal/adapters/filecache"
	"github.com/samirrijal/trackheat/internal/adapters/gpx"
	"github.com/samirrijal/trackheat/internal/adapters/render"
	"github.com/samirrijal/trackheat/internal/adapters/valkey"
	"github.com/samirrijal/trackheat/internal/core/ports"
	"github.com/samirrijal/trackheat/internal/core/usecases"
	"github.com/samirrijal/trackheat/internal/pkg/codec"
	"github.com/samirrijal/trackheat/internal/pkg/config"
)

// Pipeline is a configured HeatmapService plus the resources it owns.
type Pipeline struct {
	Heatmap *usecases.HeatmapService
	Cache   ports.DatasetCache

	closers []func()
}

// Close releases backend connections.
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// Options carries the optional collaborators of a pipeline.
type Options struct {
	// Publisher may be nil.
	Publisher ports.EventPublisher
	// Observer may be nil.
	Observer ports.ProgressObserver
	// Title is shown in rendered documents.
	Title string
}

// NewCache builds the dataset cache selected by cache.backend. The returned
// func closes any connection it opened.
func NewCache(cfg *config.Config) (ports.DatasetCache, func(), error) {
	c, err := codec.ByName(cfg.Cache.Codec)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Cache.Backend {
	case "", "file":
		return filecache.New(cfg.Cache.Path, c), func() {}, nil
	case "valkey":
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Cache.Key, c)
		if err != nil {
			return nil, nil, fmt.Errorf("valkey cache: %w", err)
		}
		return vc, vc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// NewRenderer builds the Leaflet renderer from heatmap settings.
func NewRenderer(cfg *config.Config, title string) (*render.Leaflet, error) {
	return render.New(render.Options{
		Radius: cfg.Heatmap.Radius,
		Blur:   cfg.Heatmap.Blur,
		Zoom:   cfg.Heatmap.Zoom,
		Tiles:  cfg.Heatmap.Tiles,
		Title:  title,
	})
}

// NewPipeline wires the collector, cache and renderer described by cfg.
func NewPipeline(cfg *config.Config, opts Options) (*Pipeline, error) {
	loc, err := cfg.Filter.Location()
	if err != nil {
		return nil, fmt.Errorf("filter timezone: %w", err)
	}

	cache, closeCache, err := NewCache(cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := NewRenderer(cfg, opts.Title)
	if err != nil {
		closeCache()
		return nil, err
	}

	collector := usecases.NewCollector(gpx.NewReader(), usecases.CollectorOptions{
		Extension:    cfg.Tracks.Extension,
		SkipFailures: cfg.Tracks.OnError == config.OnErrorSkip,
	})

	svc := usecases.NewHeatmapService(collector, cache, renderer, opts.Publisher, usecases.HeatmapOptions{
		Root:          cfg.Tracks.RootFolder,
		FailOnCorrupt: cfg.Cache.OnCorrupt == config.OnCorruptFail,
		Filter: usecases.FilterOptions{
			IncludeUndated: cfg.Filter.IncludeUndated,
			Location:       loc,
		},
		CacheBackend: cfg.Cache.Backend,
		Observer:     opts.Observer,
	})

	return &Pipeline{
		Heatmap: svc,
		Cache:   cache,
		closers: []func(){closeCache},
	}, nil
}
