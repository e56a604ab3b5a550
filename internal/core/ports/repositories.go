package ports

import (
	"context"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// DatasetCache persists a collected dataset as a single blob at one fixed
// location. Nothing ties the blob to the contents of the source folder.
type DatasetCache interface {
	// Load returns domain.ErrCacheMiss when nothing is stored and
	// domain.ErrCacheCorrupt when the blob cannot be decoded.
	Load(ctx context.Context) (*domain.Dataset, error)
	// Save overwrites any stored dataset.
	Save(ctx context.Context, ds *domain.Dataset) error
	// Exists reports whether a blob is stored without decoding it.
	Exists(ctx context.Context) (bool, error)
}

// PointArchive stores a dataset in a queryable database.
type PointArchive interface {
	ReplaceAll(ctx context.Context, ds *domain.Dataset) (int, error)
	Count(ctx context.Context) (int, error)
	DateRange(ctx context.Context) (first, last *domain.Date, err error)
}
