package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/trackheat/internal/pkg/geospatial"
)

func TestHaversine_SamePoint(t *testing.T) {
	if d := geospatial.Haversine(43.263, -2.935, 43.263, -2.935); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Madrid (Puerta del Sol) to Barcelona (Plaça de Catalunya), roughly 505 km.
	d := geospatial.Haversine(40.4168, -3.7038, 41.3870, 2.1701)
	if math.Abs(d-505_000) > 5_000 {
		t.Errorf("expected ~505km, got %.0fm", d)
	}
}

func TestDiagonalKm(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	d := geospatial.DiagonalKm(0, 0, 1, 0)
	if math.Abs(d-111.19) > 0.1 {
		t.Errorf("expected ~111.19km, got %.3f", d)
	}
}
