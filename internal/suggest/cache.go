package suggest

import (
	"container/list"
	"sync"
)

// Cache is an LRU cache of suggestions keyed by input.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	lru     *list.List
}

type cacheEntry struct {
	input       string
	suggestions []Suggestion
}

// NewCache creates a cache holding at most maxSize inputs.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Cache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get returns a copy of the cached suggestions and whether input was cached.
func (c *Cache) Get(input string) ([]Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[input]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	entry := elem.Value.(*cacheEntry) //nolint:errcheck // list only holds *cacheEntry
	return copySuggestions(entry.suggestions), true
}

// Set stores suggestions for input, evicting the least recently used entry
// when full.
func (c *Cache) Set(input string, suggestions []Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[input]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).suggestions = copySuggestions(suggestions) //nolint:errcheck // list only holds *cacheEntry
		return
	}

	for c.lru.Len() >= c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).input) //nolint:errcheck // list only holds *cacheEntry
	}

	elem := c.lru.PushFront(&cacheEntry{input: input, suggestions: copySuggestions(suggestions)})
	c.items[input] = elem
}

// Len returns the number of cached inputs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
}

func copySuggestions(s []Suggestion) []Suggestion {
	if s == nil {
		return nil
	}
	out := make([]Suggestion, len(s))
	copy(out, s)
	return out
}
