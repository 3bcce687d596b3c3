package dedup

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of event ids remembered when none is configured.
const DefaultCapacity = 1000

// Deduplicator remembers the most recent event ids.
type Deduplicator interface {
	// Seen records id and reports whether it was already recorded.
	Seen(id string) bool
	Len() int
}

type lruDeduplicator struct {
	cache *lru.Cache[string, struct{}]
}

// New creates a Deduplicator holding at most capacity ids. Once full, the
// oldest inserted id is forgotten first. Entries are never read back with
// Get, so recency never reorders them.
func New(capacity int) (*lruDeduplicator, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, fmt.Errorf("dedup: %w", err)
	}
	return &lruDeduplicator{cache: cache}, nil
}

func (d *lruDeduplicator) Seen(id string) bool {
	if id == "" {
		return false
	}
	found, _ := d.cache.ContainsOrAdd(id, struct{}{})
	return found
}

func (d *lruDeduplicator) Len() int {
	return d.cache.Len()
}
