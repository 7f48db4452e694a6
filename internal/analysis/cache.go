package analysis

import "fmt"

// cache keeps the latest result of each analysis, keyed by analysis name. An entry
// is reused only when both the parameter tuple and the dataset version match;
// otherwise it is recomputed and replaced.
type cache struct {
	entries map[string]cacheEntry
	hits    int
	misses  int
}

type cacheEntry struct {
	params  string
	version string
	value   any
}

func newCache() *cache { return &cache{entries: map[string]cacheEntry{}} }

// paramKey renders a parameter tuple canonically. fmt prints map keys sorted.
func paramKey(params ...any) string { return fmt.Sprintf("%#v", params) }

func (c *cache) get(analysis, params, version string) (any, bool) {
	e, ok := c.entries[analysis]
	if !ok || e.params != params || e.version != version {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

func (c *cache) put(analysis, params, version string, v any) {
	c.entries[analysis] = cacheEntry{params: params, version: version, value: v}
}

func (c *cache) reset() {
	c.entries = map[string]cacheEntry{}
}

// memo returns the cached value of an analysis or computes and stores it. Errors are not cached.
func memo[T any](p *Profiler, analysis string, params []any, compute func() (T, error)) (T, error) {
	key := paramKey(params...)
	if v, ok := p.cache.get(analysis, key, p.data.Version()); ok {
		p.log.WithField("analysis", analysis).Debug("cache hit")
		return v.(T), nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	p.cache.put(analysis, key, p.data.Version(), v)
	return v, nil
}
