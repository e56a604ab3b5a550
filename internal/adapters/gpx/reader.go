package gpx

import (
	"context"
	"fmt"
	"io"
	"os"

	gpxgo "github.com/tkrajina/gpxgo/gpx"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// Reader implements ports.TrackReader for GPX 1.0/1.1 documents.
type Reader struct{}

// NewReader creates a GPX track reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read returns every track point of the file at path, track by track and
// segment by segment, in document order. Waypoints and routes are ignored.
func (r *Reader) Read(ctx context.Context, path string) ([]domain.GpsPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, domain.ErrIO, err)
	}
	defer f.Close()

	return r.decode(path, f)
}

func (r *Reader) decode(name string, src io.Reader) ([]domain.GpsPoint, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", name, domain.ErrIO, err)
	}

	doc, err := gpxgo.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", name, domain.ErrParse, err)
	}

	var points []domain.GpsPoint
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				points = append(points, domain.GpsPoint{
					Lat:  pt.Latitude,
					Lon:  pt.Longitude,
					Time: pt.Timestamp,
				})
			}
		}
	}
	return points, nil
}
