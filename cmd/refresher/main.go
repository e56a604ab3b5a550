package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/trackheat/internal/adapters/postgres"
	"github.com/samirrijal/trackheat/internal/bootstrap"
	"github.com/samirrijal/trackheat/internal/core/ports"
	"github.com/samirrijal/trackheat/internal/pkg/config"
	"github.com/samirrijal/trackheat/internal/pkg/logging"
	"github.com/samirrijal/trackheat/internal/workflows"
)

// refresher runs the Temporal worker for RefreshWorkflow.
//
//	refresher              run the worker
//	refresher start        start one refresh
//	refresher start CRON   schedule refreshes, e.g. "0 3 * * *"
func main() {
	cfg, err := config.Load("trackheat-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if len(os.Args) > 1 && os.Args[1] == "start" {
		cron := ""
		if len(os.Args) > 2 {
			cron = os.Args[2]
		}
		start(c, cfg, cron)
		return
	}

	ctx := context.Background()

	var archive ports.PointArchive
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()
		archive = postgres.NewPointRepo(db)
	}

	p, err := bootstrap.NewPipeline(cfg, bootstrap.Options{Title: "Cycling heatmap"})
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	defer p.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		// One collection pass at a time against the shared cache.
		MaxConcurrentActivityExecutionSize: 1,
	})

	w.RegisterWorkflow(workflows.RefreshWorkflow)
	w.RegisterActivity(&workflows.RefreshActivities{
		Heatmap: p.Heatmap,
		Archive: archive,
	})

	slog.Info("refresher worker started", "task_queue", cfg.Temporal.TaskQueue, "archive", archive != nil)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func start(c client.Client, cfg *config.Config, cron string) {
	opts := client.StartWorkflowOptions{
		ID:           "trackheat-refresh",
		TaskQueue:    cfg.Temporal.TaskQueue,
		CronSchedule: cron,
	}
	run, err := c.ExecuteWorkflow(context.Background(), opts, workflows.RefreshWorkflow, workflows.RefreshInput{
		Output:  cfg.Heatmap.Output,
		Archive: cfg.Database.Enabled,
	})
	if err != nil {
		log.Fatalf("start workflow: %v", err)
	}
	slog.Info("refresh workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "cron", cron)
}
