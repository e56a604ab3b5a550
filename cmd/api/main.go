package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/trackheat/internal/adapters/http"
	natsadapter "github.com/samirrijal/trackheat/internal/adapters/nats"
	"github.com/samirrijal/trackheat/internal/adapters/postgres"
	"github.com/samirrijal/trackheat/internal/bootstrap"
	"github.com/samirrijal/trackheat/internal/core/ports"
	"github.com/samirrijal/trackheat/internal/pkg/config"
	"github.com/samirrijal/trackheat/internal/pkg/logging"
	"github.com/samirrijal/trackheat/internal/pkg/metrics"
	"github.com/samirrijal/trackheat/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("trackheat-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// NATS is optional: progress events and the /ws relay need it.
	var (
		publisher ports.EventPublisher
		natsConn  *nats.Conn
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	// The point archive is optional as well.
	var (
		db      *postgres.DB
		archive ports.PointArchive
	)
	if cfg.Database.Enabled {
		pg, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			slog.Warn("database unavailable, archive disabled", "error", err)
		} else {
			db = pg
			defer db.Close()
			archive = postgres.NewPointRepo(db)
			go reportPoolStats(ctx, db)
		}
	}

	p, err := bootstrap.NewPipeline(cfg, bootstrap.Options{
		Publisher: publisher,
		Title:     "Cycling heatmap",
	})
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	defer p.Close()

	deps := &http.Dependencies{
		Heatmap:      p.Heatmap,
		DatasetCache: p.Cache,
		Archive:      archive,
		NATS:         natsConn,
		DB:           db,
		Title:        "Cycling heatmap",
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Trackheat",
	})
	app.Use(recover.New())

	http.SetupRoutes(app, deps)

	// Warm the dataset so the first page view does not pay for collection.
	go func() {
		if _, err := p.Heatmap.Dataset(ctx); err != nil {
			slog.Error("initial dataset load failed", "error", err)
		}
	}()

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "tracks", cfg.Tracks.RootFolder, "cache", cfg.Cache.Backend)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
