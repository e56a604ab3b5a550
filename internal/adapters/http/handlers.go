package http

import (
	"bytes"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// PointsResponse is a page of filtered points.
type PointsResponse struct {
	Window     domain.TimeWindow `json:"window"`
	Shown      int               `json:"shown"`
	Total      int               `json:"total"`
	Data       []domain.GeoPoint `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// ArchiveStats describes the Postgres point archive.
type ArchiveStats struct {
	Points    int    `json:"points"`
	FirstDate string `json:"first_date,omitempty"`
	LastDate  string `json:"last_date,omitempty"`
}

// HeatmapHandler renders the heatmap document for the requested window.
func HeatmapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		w, err := parseWindow(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		w, err = deps.Heatmap.ResolveWindow(ctx, w)
		if err != nil {
			return errFromDomain(c, err)
		}

		points, total, err := deps.Heatmap.Points(ctx, w)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("X-Points-Shown", strconv.Itoa(len(points)))
		c.Set("X-Points-Total", strconv.Itoa(total))
		c.Set("X-Window", w.String())

		if len(points) == 0 {
			return errNotFound(c, "no gps data found in "+w.String())
		}

		var buf bytes.Buffer
		if err := deps.Heatmap.Render(ctx, points, &buf); err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Content-Type", deps.Heatmap.ContentType())
		return c.Send(buf.Bytes())
	}
}

// PointsHandler returns filtered points with offset/limit pagination.
func PointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		w, err := parseWindow(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 1000)
		if offset < 0 {
			return errBadRequest(c, "offset must not be negative")
		}
		if limit <= 0 || limit > 10000 {
			limit = 1000
		}

		w, err = deps.Heatmap.ResolveWindow(ctx, w)
		if err != nil {
			return errFromDomain(c, err)
		}
		points, total, err := deps.Heatmap.Points(ctx, w)
		if err != nil {
			return errFromDomain(c, err)
		}

		shown := len(points)
		page := points
		if offset >= shown {
			page = []domain.GeoPoint{}
		} else {
			end := offset + limit
			if end > shown {
				end = shown
			}
			page = points[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: shown}
		SetLinkHeaders(c, pg)
		return c.JSON(PointsResponse{
			Window:     w,
			Shown:      shown,
			Total:      total,
			Data:       page,
			Pagination: pg,
		})
	}
}

// DatasetHandler returns a summary of the full dataset.
func DatasetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summary, err := deps.Heatmap.Summary(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(summary)
	}
}

// RefreshHandler recollects the track folder and overwrites the cache.
func RefreshHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		LoggerFromCtx(ctx).Info("dataset refresh requested")

		if _, err := deps.Heatmap.Refresh(ctx); err != nil {
			return errFromDomain(c, err)
		}
		summary, err := deps.Heatmap.Summary(ctx)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(summary)
	}
}

// ArchiveHandler reports what the point archive holds.
func ArchiveHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Archive == nil {
			return errNotFound(c, "point archive not configured")
		}
		ctx := c.UserContext()

		var stats ArchiveStats
		n, err := deps.Archive.Count(ctx)
		if err != nil {
			return errInternal(c, err.Error())
		}
		stats.Points = n

		first, last, err := deps.Archive.DateRange(ctx)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if first != nil {
			stats.FirstDate = first.String()
		}
		if last != nil {
			stats.LastDate = last.String()
		}

		c.Set("Cache-Control", "private, max-age=60")
		return c.JSON(stats)
	}
}
