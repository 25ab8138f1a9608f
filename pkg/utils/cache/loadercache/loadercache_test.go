package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/utils/cache"
)

func TestLoaderCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	loads := 0
	errUnknown := errors.New("unknown")
	c := New(
		WithExpiration[string, int](time.Minute),
		withClock[string, int](func() time.Time { return now }),
		WithLoader[string, int](func(ctx context.Context, key string) (*int, error) {
			loads++
			if key == "missing" {
				return nil, errUnknown
			}
			v := len(key)
			return &v, nil
		}),
	)

	v, err := c.Get(ctx, "kb2024")
	require.NoError(t, err)
	assert.Equal(t, 6, *v)
	_, _ = c.Get(ctx, "kb2024")
	assert.Equal(t, 1, loads)

	// failed loads are retried
	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, errUnknown)
	_, _ = c.Get(ctx, "missing")
	assert.Equal(t, 3, loads)

	now = now.Add(2 * time.Minute)
	_, _ = c.Get(ctx, "kb2024")
	assert.Equal(t, 4, loads)

	c.Invalidate(ctx, "kb2024")
	_, _ = c.Get(ctx, "kb2024")
	assert.Equal(t, 5, loads)
}

func TestWithoutLoader(t *testing.T) {
	c := New[string, int]()
	_, err := c.Get(context.Background(), "any")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
