package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

type gobDataset struct {
	Coordinates []domain.GeoPoint
	Timestamps  []time.Time
}

// Gob encodes the two parallel sequences with encoding/gob.
type Gob struct{}

func (Gob) Name() string { return "gob" }

func (Gob) Encode(ds *domain.Dataset) ([]byte, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobDataset{
		Coordinates: ds.Coordinates,
		Timestamps:  ds.Timestamps,
	}); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (Gob) Decode(b []byte) (*domain.Dataset, error) {
	var w gobDataset
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	ds := &domain.Dataset{Coordinates: w.Coordinates, Timestamps: w.Timestamps}
	if ds.Coordinates == nil {
		ds.Coordinates = []domain.GeoPoint{}
	}
	if ds.Timestamps == nil {
		ds.Timestamps = []time.Time{}
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
