package usecases

import (
	"time"

	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/pkg/geospatial"
)

// FilterOptions controls how timestamps are compared against a window.
type FilterOptions struct {
	// IncludeUndated keeps points without a timestamp regardless of the window.
	IncludeUndated bool
	// Location is where calendar dates are taken. Nil means UTC.
	Location *time.Location
}

func (o FilterOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// FilterByWindow returns the coordinates whose timestamp falls on a calendar
// date inside w, in dataset order. An inverted window yields an empty result.
func FilterByWindow(ds *domain.Dataset, w domain.TimeWindow, opts FilterOptions) []domain.GeoPoint {
	out := make([]domain.GeoPoint, 0)
	if ds.Len() == 0 {
		return out
	}
	loc := opts.location()
	for i, ts := range ds.Timestamps {
		if ts.IsZero() {
			if opts.IncludeUndated {
				out = append(out, ds.Coordinates[i])
			}
			continue
		}
		if w.Contains(domain.DateOf(ts, loc)) {
			out = append(out, ds.Coordinates[i])
		}
	}
	return out
}

// DateRange returns the earliest and latest calendar dates in ds. ok is false
// when no point carries a timestamp.
func DateRange(ds *domain.Dataset, loc *time.Location) (first, last domain.Date, ok bool) {
	if ds.Len() == 0 {
		return first, last, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, ts := range ds.Timestamps {
		if ts.IsZero() {
			continue
		}
		d := domain.DateOf(ts, loc)
		if !ok {
			first, last, ok = d, d, true
			continue
		}
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return first, last, ok
}

// ClampToDataset moves w into the observed date range of ds. Without any
// dated point the window is returned unchanged.
func ClampToDataset(ds *domain.Dataset, w domain.TimeWindow, loc *time.Location) domain.TimeWindow {
	first, last, ok := DateRange(ds, loc)
	if !ok {
		return w
	}
	return w.Clamp(first, last)
}

// Summarize describes ds for display.
func Summarize(ds *domain.Dataset, loc *time.Location) domain.DatasetSummary {
	s := domain.DatasetSummary{Points: ds.Len()}
	if ds.Len() == 0 {
		return s
	}
	for _, ts := range ds.Timestamps {
		if ts.IsZero() {
			s.UndatedCount++
		}
	}
	s.DatedPoints = s.Points - s.UndatedCount

	if first, last, ok := DateRange(ds, loc); ok {
		s.FirstDate, s.LastDate = first.String(), last.String()
	}
	if b, ok := domain.BoundsOf(ds.Coordinates); ok {
		s.Bounds = &b
		s.SpanKm = geospatial.DiagonalKm(b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
	}
	return s
}
