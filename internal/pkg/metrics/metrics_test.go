package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/trackheat/internal/pkg/metrics"
)

type fakePoolStat struct{}

func (fakePoolStat) AcquiredConns() int32 { return 2 }
func (fakePoolStat) IdleConns() int32     { return 1 }
func (fakePoolStat) TotalConns() int32    { return 3 }

func scrape(t *testing.T) string {
	t.Helper()
	app := fiber.New()
	app.Get("/metrics", metrics.Handler())
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestUpdateDBPoolMetrics(t *testing.T) {
	metrics.UpdateDBPoolMetrics(fakePoolStat{})
	// Anything else is ignored.
	metrics.UpdateDBPoolMetrics("not a pool")

	out := scrape(t)
	for _, want := range []string{
		"trackheat_db_pool_conns_open 3",
		"trackheat_db_pool_conns_acquired 2",
		"trackheat_db_pool_conns_idle 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in /metrics output", want)
		}
	}
}

func TestHandler_ExposesPipelineMetrics(t *testing.T) {
	metrics.FilesParsed.Inc()
	metrics.CacheHits.WithLabelValues("file").Inc()

	app := fiber.New()
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	if _, err := app.Test(httptest.NewRequest("GET", "/ping", nil)); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		"trackheat_collector_files_parsed_total",
		`trackheat_cache_hits_total{backend="file"}`,
		`trackheat_http_requests_total{method="GET",path="/ping",status="200"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %s in /metrics output", want)
		}
	}
}
