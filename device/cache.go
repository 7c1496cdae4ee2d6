package device

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a parsed snapshot is considered fresh.
const DefaultTTL = 300 * time.Second

// Options configures a Cache.
type Options struct {
	// TTL after which the snapshot is stale. Defaults to DefaultTTL.
	TTL time.Duration
	// Now is the clock used for refresh stamps and staleness checks.
	Now func() time.Time
}

// Cache maps lowercased device names to records.
//
// Iteration order for fuzzy lookups is the line order in which a name first
// appeared in the parsed text, which keeps tie-breaks deterministic.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu          sync.RWMutex
	records     map[string]Record
	order       []string
	refreshedAt time.Time
}

// NewCache creates an empty (and therefore stale) cache.
func NewCache(optFns ...func(o *Options)) *Cache {
	opts := Options{
		TTL: DefaultTTL,
		Now: time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cache{
		ttl:     opts.TTL,
		now:     opts.Now,
		records: map[string]Record{},
	}
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Parse replaces the snapshot with the devices found in raw and stamps the
// refresh time. Lines without a colon and unknown keys are ignored; blocks
// missing entity_id or names are dropped. It returns the number of devices
// in the new snapshot.
func (c *Cache) Parse(raw string) int {
	records, order := parseBlocks(raw)

	c.mu.Lock()
	c.records = records
	c.order = order
	c.refreshedAt = c.now()
	c.mu.Unlock()

	return len(order)
}

// IsStale reports whether the snapshot is older than the TTL.
func (c *Cache) IsStale() bool {
	c.mu.RLock()
	at := c.refreshedAt
	c.mu.RUnlock()

	return c.now().Sub(at) > c.ttl
}

// RefreshedAt returns the time of the last successful Parse.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.refreshedAt
}

// Len returns the number of cached devices.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.order)
}

// Records returns the cached devices in lookup order.
func (c *Cache) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Record, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.records[key])
	}

	return out
}

// Find resolves target to a device. Matching is case-insensitive and tries,
// in order: an exact name match, the first name containing target (or
// contained in it), and finally the name sharing the most whitespace
// separated words with target.
func (c *Cache) Find(target string) (Record, bool) {
	t := strings.ToLower(target)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if rec, ok := c.records[t]; ok {
		return rec, true
	}

	for _, name := range c.order {
		if strings.Contains(name, t) || strings.Contains(t, name) {
			return c.records[name], true
		}
	}

	targetWords := wordSet(t)

	var (
		best      string
		bestScore int
	)

	for _, name := range c.order {
		score := 0
		for w := range wordSet(name) {
			if _, ok := targetWords[w]; ok {
				score++
			}
		}

		if score > bestScore {
			best, bestScore = name, score
		}
	}

	if bestScore == 0 {
		return Record{}, false
	}

	return c.records[best], true
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var capturedKeys = map[string]struct{}{
	"entity_id": {},
	"names":     {},
	"state":     {},
	"area":      {},
}

// parseBlocks builds a fresh record set without touching any shared state.
func parseBlocks(raw string) (map[string]Record, []string) {
	records := map[string]Record{}
	order := []string{}
	block := map[string]string{}

	commit := func() {
		defer clear(block)

		entityID, name := block["entity_id"], block["names"]
		if entityID == "" || name == "" {
			return
		}

		rec := Record{
			EntityID: entityID,
			Name:     name,
			Domain:   DomainOf(entityID),
			State:    "unknown",
		}

		if state, ok := block["state"]; ok {
			rec.State = state
		}

		if area, ok := block["area"]; ok {
			rec.Area = &area
		}

		key := strings.ToLower(name)
		if _, seen := records[key]; !seen {
			order = append(order, key)
		}

		records[key] = rec
	}

	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			commit()
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		if _, wanted := capturedKeys[key]; wanted {
			block[key] = strings.TrimSpace(value)
		}
	}

	commit()

	return records, order
}
