package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	render := func() (string, error) {
		calls++
		return "<div>chart</div>", nil
	}

	html, err := cache.GetOrRender("hourly:abc", render)
	require.NoError(t, err)
	assert.Equal(t, "<div>chart</div>", html)

	html, err = cache.GetOrRender("hourly:abc", render)
	require.NoError(t, err)
	assert.Equal(t, "<div>chart</div>", html)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheExpires(t *testing.T) {
	cache := NewChartCache(time.Minute)
	now := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}
	_, _ = cache.GetOrRender("k", render)
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetOrRender("k", render)
	assert.Equal(t, 2, calls)
}

func TestChartCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewChartCache(time.Minute)
	_, err := cache.GetOrRender("k", func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheDisabled(t *testing.T) {
	var nilCache *ChartCache
	html, err := nilCache.GetOrRender("k", func() (string, error) { return "x", nil })
	require.NoError(t, err)
	assert.Equal(t, "x", html)

	zero := NewChartCache(0)
	_, _ = zero.GetOrRender("k", func() (string, error) { return "x", nil })
	assert.Equal(t, 0, zero.Len())
}

func TestChartCacheEvictsSoonestExpiring(t *testing.T) {
	cache := NewChartCache(time.Minute)
	cache.maxEntries = 2
	now := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	render := func() (string, error) { return "html", nil }

	_, _ = cache.GetOrRender("a", render)
	now = now.Add(time.Second)
	_, _ = cache.GetOrRender("b", render)
	now = now.Add(time.Second)
	_, _ = cache.GetOrRender("c", render)

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.lookup("a")
	assert.False(t, ok)
	_, ok = cache.lookup("c")
	assert.True(t, ok)
}

func TestChartCacheStats(t *testing.T) {
	cache := NewChartCache(time.Minute)
	render := func() (string, error) { return "html", nil }
	_, _ = cache.GetOrRender("k", render)
	_, _ = cache.GetOrRender("k", render)
	_, _ = cache.GetOrRender("k", render)

	assert.Equal(t, ChartCacheStats{Hits: 2, Misses: 1, Entries: 1}, cache.Stats())
}

func TestContentHashIsStable(t *testing.T) {
	a := contentHash([]HourlyBar{{Label: "14시", PowerKW: 3200}})
	b := contentHash([]HourlyBar{{Label: "14시", PowerKW: 3200}})
	c := contentHash([]HourlyBar{{Label: "15시", PowerKW: 3200}})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
