package filecache

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/pkg/codec"
)

// Memory is an in-process DatasetCache holding the encoded blob. It goes
// through the same codec as Store so both behave alike.
type Memory struct {
	mu    sync.Mutex
	blob  []byte
	set   bool
	codec codec.Codec
}

// NewMemory creates an empty in-memory cache.
func NewMemory(c codec.Codec) *Memory {
	return &Memory{codec: c}
}

func (m *Memory) Load(ctx context.Context) (*domain.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, domain.ErrCacheMiss
	}
	if len(m.blob) == 0 {
		return nil, fmt.Errorf("memory cache is empty: %w", domain.ErrCacheCorrupt)
	}
	ds, err := m.codec.Decode(m.blob)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w: %v", domain.ErrCacheCorrupt, err)
	}
	return ds, nil
}

func (m *Memory) Save(ctx context.Context, ds *domain.Dataset) error {
	data, err := m.codec.Encode(ds)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	m.mu.Lock()
	m.blob, m.set = data, true
	m.mu.Unlock()
	return nil
}

func (m *Memory) Exists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set, nil
}

// Corrupt replaces the stored blob with raw bytes.
func (m *Memory) Corrupt(raw []byte) {
	m.mu.Lock()
	m.blob, m.set = raw, true
	m.mu.Unlock()
}
