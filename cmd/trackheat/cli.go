package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	natsadapter "github.com/samirrijal/trackheat/internal/adapters/nats"
	"github.com/samirrijal/trackheat/internal/bootstrap"
	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/core/ports"
	"github.com/samirrijal/trackheat/internal/pkg/config"
	"github.com/samirrijal/trackheat/internal/pkg/logging"
	"github.com/samirrijal/trackheat/internal/pkg/telemetry"
)

const noDataMessage = "No GPS data found."

type options struct {
	start   string
	end     string
	out     string
	refresh bool
	summary string
	quiet   bool
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := pflag.NewFlagSet("trackheat", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: trackheat [flags]\n       trackheat watch\n\nflags:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr, "\nWith neither --start nor --end every point is drawn, undated ones included.\nAny date flag keeps only points recorded inside the window.")
	}
	fs.StringVar(&o.start, "start", "", "first date to include (YYYY-MM-DD); defaults to the earliest recorded date")
	fs.StringVar(&o.end, "end", "", "last date to include (YYYY-MM-DD); defaults to the latest recorded date")
	fs.StringVarP(&o.out, "out", "o", "", "output file (default heatmap.output)")
	fs.BoolVar(&o.refresh, "refresh", false, "ignore the cache, recollect the track folder and overwrite the cache")
	fs.StringVar(&o.summary, "summary", "", "print a dataset summary as json or yaml instead of rendering")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "do not report collection progress")

	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	if o.summary != "" && o.summary != "json" && o.summary != "yaml" {
		return o, nil, fmt.Errorf("--summary must be json or yaml, got %q", o.summary)
	}
	return o, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load("trackheat")
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	if len(rest) > 0 {
		switch rest[0] {
		case "watch":
			return watch(ctx, cfg, stdout)
		default:
			return fmt.Errorf("unknown command %q", rest[0])
		}
	}

	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, progress events disabled", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	var observer ports.ProgressObserver
	if !opts.quiet {
		observer = progressPrinter(stderr)
	}

	p, err := bootstrap.NewPipeline(cfg, bootstrap.Options{
		Publisher: publisher,
		Observer:  observer,
		Title:     "Cycling heatmap",
	})
	if err != nil {
		return err
	}
	defer p.Close()

	if opts.refresh {
		if _, err := p.Heatmap.Refresh(ctx); err != nil {
			return err
		}
	}

	if opts.summary != "" {
		s, err := p.Heatmap.Summary(ctx)
		if err != nil {
			return err
		}
		return writeSummary(stdout, opts.summary, s)
	}

	out := opts.out
	if out == "" {
		out = cfg.Heatmap.Output
	}
	return render(ctx, p, opts, out, stdout)
}

func render(ctx context.Context, p *bootstrap.Pipeline, opts options, out string, stdout io.Writer) error {
	points, total, label, err := selectPoints(ctx, p, opts)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintln(stdout, noDataMessage)
		return nil
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := p.Heatmap.Render(ctx, points, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}

	fmt.Fprintf(stdout, "%d of %d points shown (%s)\n", len(points), total, label)
	fmt.Fprintf(stdout, "heatmap written to %s\n", out)
	return nil
}

// selectPoints applies the date window. Without any date flag nothing is
// filtered, so undated points are drawn too.
func selectPoints(ctx context.Context, p *bootstrap.Pipeline, opts options) ([]domain.GeoPoint, int, string, error) {
	if opts.start == "" && opts.end == "" {
		points, err := p.Heatmap.AllPoints(ctx)
		return points, len(points), "all dates", err
	}

	w, err := domain.ParseWindow(opts.start, opts.end)
	if err != nil {
		return nil, 0, "", err
	}
	w, err = p.Heatmap.ResolveWindow(ctx, w)
	if err != nil {
		return nil, 0, "", err
	}
	points, total, err := p.Heatmap.Points(ctx, w)
	return points, total, w.String(), err
}

func writeSummary(w io.Writer, format string, s domain.DatasetSummary) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// progressPrinter reports collection progress on one rewritten line.
func progressPrinter(w io.Writer) ports.ProgressObserver {
	return ports.ProgressFunc(func(ctx context.Context, p domain.Progress) {
		fmt.Fprintf(w, "\rcollecting tracks: %d/%d files", p.FilesProcessed, p.FilesTotal)
		if p.Done() {
			fmt.Fprintln(w)
		}
	})
}

// watch prints progress and dataset events published by other processes
// until ctx is cancelled.
func watch(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer sub.Close()

	err = sub.SubscribeProgress(ctx, func(ctx context.Context, p domain.Progress) error {
		status := "ok"
		if p.Skipped {
			status = "skipped: " + p.Error
		}
		fmt.Fprintf(stdout, "[%d/%d] %s %d points %s\n", p.FilesProcessed, p.FilesTotal, p.Path, p.Points, status)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe progress: %w", err)
	}

	err = sub.SubscribeDatasetReady(ctx, func(ctx context.Context, s domain.DatasetSummary) error {
		fmt.Fprintf(stdout, "dataset ready: %d points, %s..%s\n", s.Points, s.FirstDate, s.LastDate)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe dataset: %w", err)
	}

	slog.Info("watching pipeline events", "url", cfg.NATS.URL)
	<-ctx.Done()
	return nil
}
