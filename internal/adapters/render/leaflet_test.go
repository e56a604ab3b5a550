package render_test

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/samirrijal/trackheat/internal/adapters/render"
	"github.com/samirrijal/trackheat/internal/core/domain"
)

func newRenderer(t *testing.T) *render.Leaflet {
	t.Helper()
	r, err := render.New(render.Options{Radius: 8, Blur: 15, Zoom: 13, Tiles: "CartoDB positron", Title: "Rides"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestLeaflet_Render(t *testing.T) {
	r := newRenderer(t)
	points := []domain.GeoPoint{
		{Lat: 43.263, Lon: -2.935},
		{Lat: 43.3, Lon: -2.9},
	}

	var buf bytes.Buffer
	if err := r.Render(context.Background(), points, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<title>Rides</title>",
		"leaflet-heat.js",
		"light_all",
		"[[43.263,-2.935],[43.3,-2.9]]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}

	setView := regexp.MustCompile(`setView\(\[\s*43\.263\s*,\s*-2\.935\s*\]\s*,\s*13\s*\)`)
	if !setView.MatchString(out) {
		t.Error("expected map centered on the first point at zoom 13")
	}
	heat := regexp.MustCompile(`radius:\s*8\s*,\s*blur:\s*15`)
	if !heat.MatchString(out) {
		t.Error("expected radius 8 and blur 15")
	}
}

func TestLeaflet_RenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := newRenderer(t).Render(context.Background(), nil, &buf)
	if !errors.Is(err, domain.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %d bytes", buf.Len())
	}
}

func TestLeaflet_TitleIsEscaped(t *testing.T) {
	r, err := render.New(render.Options{Radius: 8, Blur: 15, Zoom: 13, Tiles: "openstreetmap", Title: "<script>x</script>"})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.Render(context.Background(), []domain.GeoPoint{{Lat: 1, Lon: 2}}, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<title><script>") {
		t.Error("expected title to be escaped")
	}
}

func TestNew_TileProviders(t *testing.T) {
	if _, err := render.New(render.Options{Tiles: "https://tiles.example.com/{z}/{x}/{y}.png"}); err != nil {
		t.Errorf("expected URL template to be accepted, got %v", err)
	}
	if _, err := render.New(render.Options{Tiles: "Stamen Watercolor"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestLeaflet_ContentType(t *testing.T) {
	if ct := newRenderer(t).ContentType(); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %s", ct)
	}
}
