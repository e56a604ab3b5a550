package filecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/pkg/codec"
)

// Store implements ports.DatasetCache as one file on local disk.
type Store struct {
	path  string
	codec codec.Codec
}

// New creates a file cache at path using c to encode the blob.
func New(path string, c codec.Codec) *Store {
	return &Store{path: path, codec: c}
}

// Path returns the cache file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) (*domain.Dataset, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w: %v", s.path, domain.ErrIO, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("cache %s is empty: %w", s.path, domain.ErrCacheCorrupt)
	}

	ds, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w: %v", s.path, domain.ErrCacheCorrupt, err)
	}
	return ds, nil
}

// Save replaces the file with the encoded dataset. The write is not atomic.
func (s *Store) Save(ctx context.Context, ds *domain.Dataset) error {
	data, err := s.codec.Encode(ds)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w: %v", s.path, domain.ErrIO, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat cache %s: %w: %v", s.path, domain.ErrIO, err)
	}
}
