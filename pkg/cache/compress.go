package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Compressed wraps a Cache so that payloads are stored zstd-compressed.
// Entries that fail to decompress are treated as misses.
type Compressed struct {
	inner Cache
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressed wraps inner.
func NewCompressed(inner Cache) (*Compressed, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Compressed{inner: inner, enc: enc, dec: dec}, nil
}

// Inner returns the wrapped cache.
func (c *Compressed) Inner() Cache { return c.inner }

func (c *Compressed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, hit, err := c.inner.Get(ctx, key)
	if err != nil || !hit {
		return nil, hit, err
	}
	data, err := c.dec.DecodeAll(raw, nil)
	if err != nil {
		_ = c.inner.Delete(ctx, key)
		return nil, false, nil
	}
	return data, true, nil
}

func (c *Compressed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, c.enc.EncodeAll(data, nil), ttl)
}

func (c *Compressed) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

func (c *Compressed) Close() error {
	c.dec.Close()
	err := c.enc.Close()
	if cerr := c.inner.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ Cache = (*Compressed)(nil)
