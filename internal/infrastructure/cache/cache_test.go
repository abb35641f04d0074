package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*TagCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetGet_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Email string `json:"email"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set(ctx, "progress:a@b.com", payload{Email: "a@b.com", Count: 3}, 30*time.Second, "progress-a@b.com"))

	var got payload
	hit, err := c.Get(ctx, "progress:a@b.com", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, 3, got.Count)
}

func TestGet_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	var got map[string]string
	hit, err := c.Get(context.Background(), "nope", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGet_ExpiredValue_Misses(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Second, "t"))
	mr.FastForward(11 * time.Second)

	var got string
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInvalidate_RemovesOnlyTaggedKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "progress:a@b.com", "A", time.Minute, "progress-a@b.com", "user-stats-a@b.com"))
	require.NoError(t, c.Set(ctx, "progress:c@d.com", "C", time.Minute, "progress-c@d.com"))
	require.NoError(t, c.Set(ctx, "courses", "list", time.Minute, "courses"))

	require.NoError(t, c.Invalidate(ctx, "progress-a@b.com"))

	var got string
	hit, err := c.Get(ctx, "progress:a@b.com", &got)
	require.NoError(t, err)
	assert.False(t, hit, "invalidated key must miss")

	hit, err = c.Get(ctx, "progress:c@d.com", &got)
	require.NoError(t, err)
	assert.True(t, hit, "other user's key must survive")

	hit, err = c.Get(ctx, "courses", &got)
	require.NoError(t, err)
	assert.True(t, hit, "catalog key must survive")
}

func TestInvalidate_SecondTagStillWorks(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	// One key under two tags: either tag must be able to evict it.
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute, "t1", "t2"))
	require.NoError(t, c.Invalidate(ctx, "t2"))

	var got string
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInvalidate_UnknownTag_NoError(t *testing.T) {
	c, _ := newTestCache(t)
	assert.NoError(t, c.Invalidate(context.Background(), "never-set"))
}
