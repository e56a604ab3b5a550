package domain

import (
	"fmt"
	"time"
)

// GpsPoint is a single recorded track point as produced by a track reader.
// A zero Time means the source file carried no timestamp for the point.
type GpsPoint struct {
	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
	Time time.Time `json:"time,omitempty"`
}

// HasTime reports whether the point carries a timestamp.
func (p GpsPoint) HasTime() bool { return !p.Time.IsZero() }

// Dataset is every extracted coordinate with its timestamp, held as two
// index-aligned sequences. Order is file traversal order, then in-file order.
type Dataset struct {
	Coordinates []GeoPoint  `json:"coordinates"`
	Timestamps  []time.Time `json:"timestamps"`
}

// NewDataset returns an empty dataset with room for n points.
func NewDataset(n int) *Dataset {
	return &Dataset{
		Coordinates: make([]GeoPoint, 0, n),
		Timestamps:  make([]time.Time, 0, n),
	}
}

// Append adds points to the end of the dataset, keeping both sequences aligned.
func (d *Dataset) Append(points ...GpsPoint) {
	for _, p := range points {
		d.Coordinates = append(d.Coordinates, GeoPoint{Lat: p.Lat, Lon: p.Lon})
		d.Timestamps = append(d.Timestamps, p.Time)
	}
}

// Len returns the number of points.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Coordinates)
}

// Point returns the i-th point.
func (d *Dataset) Point(i int) GpsPoint {
	c := d.Coordinates[i]
	return GpsPoint{Lat: c.Lat, Lon: c.Lon, Time: d.Timestamps[i]}
}

// Validate checks the parallel-sequence invariant.
func (d *Dataset) Validate() error {
	if d == nil {
		return fmt.Errorf("dataset is nil")
	}
	if len(d.Coordinates) != len(d.Timestamps) {
		return fmt.Errorf("dataset has %d coordinates but %d timestamps", len(d.Coordinates), len(d.Timestamps))
	}
	return nil
}

// Progress is emitted by the collector after each track file completes.
type Progress struct {
	FilesProcessed int    `json:"files_processed"`
	FilesTotal     int    `json:"files_total"`
	Path           string `json:"path"`
	Points         int    `json:"points"`
	Skipped        bool   `json:"skipped,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Done reports whether this is the last progress signal of a pass.
func (p Progress) Done() bool { return p.FilesProcessed >= p.FilesTotal }

// DatasetSummary describes a dataset for display.
type DatasetSummary struct {
	Points       int     `json:"points" yaml:"points"`
	DatedPoints  int     `json:"dated_points" yaml:"dated_points"`
	UndatedCount int     `json:"undated_points" yaml:"undated_points"`
	FirstDate    string  `json:"first_date,omitempty" yaml:"first_date,omitempty"`
	LastDate     string  `json:"last_date,omitempty" yaml:"last_date,omitempty"`
	Bounds       *Bounds `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	SpanKm       float64 `json:"span_km" yaml:"span_km"`
}
