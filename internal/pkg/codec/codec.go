// Package codec serializes a dataset into the single blob kept by the
// dataset caches.
package codec

import (
	"fmt"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// Codec converts a dataset to and from bytes.
type Codec interface {
	Name() string
	Encode(ds *domain.Dataset) ([]byte, error)
	Decode(b []byte) (*domain.Dataset, error)
}

// ByName returns the codec configured by cache.codec.
func ByName(name string) (Codec, error) {
	switch name {
	case "", "gob":
		return Gob{}, nil
	case "proto":
		return Proto{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
