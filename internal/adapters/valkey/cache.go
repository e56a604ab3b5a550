package valkey

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/trackheat/internal/core/domain"
	"github.com/samirrijal/trackheat/internal/pkg/codec"
)

// DatasetCache implements ports.DatasetCache using Valkey (Redis-compatible).
// The blob is stored under a single key with no TTL.
type DatasetCache struct {
	client valkey.Client
	key    string
	codec  codec.Codec
}

// New creates a new Valkey-backed dataset cache.
func New(addr, key string, c codec.Codec) (*DatasetCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &DatasetCache{client: client, key: key, codec: c}, nil
}

// Load retrieves and decodes the stored dataset.
func (c *DatasetCache) Load(ctx context.Context) (*domain.Dataset, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get %s: %w: %v", c.key, domain.ErrIO, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("valkey key %s is empty: %w", c.key, domain.ErrCacheCorrupt)
	}
	ds, err := c.codec.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("valkey key %s: %w: %v", c.key, domain.ErrCacheCorrupt, err)
	}
	return ds, nil
}

// Save overwrites the stored blob.
func (c *DatasetCache) Save(ctx context.Context, ds *domain.Dataset) error {
	data, err := c.codec.Encode(ds)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(c.key).Value(valkey.BinaryString(data)).Build(),
	)
	if err := cmd.Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w: %v", c.key, domain.ErrIO, err)
	}
	return nil
}

// Exists reports whether the key is present.
func (c *DatasetCache) Exists(ctx context.Context) (bool, error) {
	n, err := c.client.Do(ctx, c.client.B().Exists().Key(c.key).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("valkey exists %s: %w: %v", c.key, domain.ErrIO, err)
	}
	return n > 0, nil
}

// Delete removes the stored blob.
func (c *DatasetCache) Delete(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.key).Build()).Error()
}

// Ping checks connectivity, used by the readiness probe.
func (c *DatasetCache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *DatasetCache) Close() {
	c.client.Close()
}
