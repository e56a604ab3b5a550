package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/trackheat/internal/adapters/postgres"
	"github.com/samirrijal/trackheat/internal/core/ports"
	"github.com/samirrijal/trackheat/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// Everything except Heatmap is optional.
type Dependencies struct {
	Heatmap      *usecases.HeatmapService
	DatasetCache ports.DatasetCache
	Archive      ports.PointArchive
	NATS         *nats.Conn
	DB           *postgres.DB
	Title        string
}
