package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-build/estimator/internal/model"
)

func cachedResponse(source string) *Response {
	cost := decimal.RequireFromString("9.99")
	return &Response{
		Source:           source,
		MaterialUnitCost: &cost,
		Confidence:       0.8,
		RetrievedAt:      time.Now().UTC(),
	}
}

func TestCache_PutGet(t *testing.T) {
	t.Parallel()

	c := NewCache(10)
	c.Put("k1", cachedResponse("a"))

	got := c.Get("k1")
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Source)
	assert.Nil(t, c.Get("absent"))
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := NewCache(2)
	c.Put("a", cachedResponse("a"))
	c.Put("b", cachedResponse("b"))
	c.Put("c", cachedResponse("c"))

	assert.Nil(t, c.Get("a"), "oldest entry should be evicted")
	assert.NotNil(t, c.Get("b"))
	assert.NotNil(t, c.Get("c"))
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	t.Parallel()

	c := NewCache(2)
	c.Put("a", cachedResponse("a"))
	c.Put("b", cachedResponse("b"))

	// Touch a so b becomes the eviction candidate.
	require.NotNil(t, c.Get("a"))
	c.Put("c", cachedResponse("c"))

	assert.NotNil(t, c.Get("a"))
	assert.Nil(t, c.Get("b"))
}

func TestCache_UpdateExistingKey(t *testing.T) {
	t.Parallel()

	c := NewCache(2)
	c.Put("a", cachedResponse("old"))
	c.Put("a", cachedResponse("new"))

	got := c.Get("a")
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Source)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
}

func TestCache_Stats(t *testing.T) {
	t.Parallel()

	c := NewCache(10)
	c.Put("a", cachedResponse("a"))

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 10, stats.MaxEntries)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestCache_ClearKeepsCounters(t *testing.T) {
	t.Parallel()

	c := NewCache(10)
	c.Put("a", cachedResponse("a"))
	c.Get("a")
	c.Clear()

	assert.Nil(t, c.Get("a"))
	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestCache_DefaultSize(t *testing.T) {
	t.Parallel()

	c := NewCache(0)
	assert.Equal(t, DefaultCacheSize, c.Stats().MaxEntries)
}

func TestRequestKey_Normalizes(t *testing.T) {
	t.Parallel()

	a := RequestKey(Request{
		Description: "  Concrete   Footing ",
		Trade:       model.TradeConcrete,
		Unit:        "CY",
		Location:    "Denver",
	})
	b := RequestKey(Request{
		Description: "concrete footing",
		Trade:       model.TradeConcrete,
		Unit:        "cy",
		Location:    "denver",
	})
	assert.Equal(t, a, b)

	c := RequestKey(Request{
		Description: "concrete footing",
		Trade:       model.TradeConcrete,
		Unit:        "ea",
		Location:    "denver",
	})
	assert.NotEqual(t, a, c)
}
