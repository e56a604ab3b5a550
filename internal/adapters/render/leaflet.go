package render

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// Options are the fixed heatmap parameters.
type Options struct {
	Radius int
	Blur   int
	Zoom   int
	// Tiles is a provider name or a {z}/{x}/{y} URL template.
	Tiles string
	Title string
}

type tileLayer struct {
	URL         string
	Attribution string
}

var providers = map[string]tileLayer{
	"cartodb positron": {
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
	"cartodb dark_matter": {
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
	"openstreetmap": {
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	},
}

// Leaflet implements ports.Renderer as a standalone Leaflet page with a
// leaflet.heat layer.
type Leaflet struct {
	opts  Options
	tiles tileLayer
}

// New creates a Leaflet renderer.
func New(opts Options) (*Leaflet, error) {
	tiles, ok := providers[strings.ToLower(opts.Tiles)]
	if !ok {
		if !strings.Contains(opts.Tiles, "{z}") {
			return nil, fmt.Errorf("unknown tile provider %q", opts.Tiles)
		}
		tiles = tileLayer{URL: opts.Tiles}
	}
	if opts.Title == "" {
		opts.Title = "Heatmap"
	}
	return &Leaflet{opts: opts, tiles: tiles}, nil
}

type pageData struct {
	Title       string
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	Radius      int
	Blur        int
	TileURL     string
	Attribution template.HTML
	Points      [][2]float64
}

// Render writes the page centered on the first point.
func (l *Leaflet) Render(ctx context.Context, points []domain.GeoPoint, w io.Writer) error {
	if len(points) == 0 {
		return domain.ErrEmptyDataset
	}

	data := pageData{
		Title:       l.opts.Title,
		CenterLat:   points[0].Lat,
		CenterLon:   points[0].Lon,
		Zoom:        l.opts.Zoom,
		Radius:      l.opts.Radius,
		Blur:        l.opts.Blur,
		TileURL:     l.tiles.URL,
		Attribution: template.HTML(l.tiles.Attribution),
		Points:      make([][2]float64, len(points)),
	}
	for i, p := range points {
		data.Points[i] = [2]float64{p.Lat, p.Lon}
	}

	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	return nil
}

func (l *Leaflet) ContentType() string {
	return "text/html; charset=utf-8"
}

var page = template.Must(template.New("heatmap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
  var map = L.map("map").setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
  L.tileLayer({{.TileURL}}, {
    attribution: {{.Attribution}},
    subdomains: "abcd",
    maxZoom: 20
  }).addTo(map);
  L.heatLayer({{.Points}}, {radius: {{.Radius}}, blur: {{.Blur}}}).addTo(map);
</script>
</body>
</html>
`))
