package expression

import (
	"container/list"
	"sync"

	"go.uber.org/atomic"
)

// DefaultCacheSize bounds the package level token cache.
const DefaultCacheSize = 256

// Cache memoizes Tokenize results keyed by the exact input text.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	size    int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	text   string
	tokens []Token
}

// NewCache returns an LRU cache holding at most size entries.
func NewCache(size int) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{
		size:    size,
		order:   list.New(),
		entries: make(map[string]*list.Element, size),
	}
}

// Tokenize returns the tokens of text, lexing it at most once while it stays cached.
// The returned slice is shared and must not be modified.
func (c *Cache) Tokenize(text string) []Token {
	c.mu.Lock()
	if el, ok := c.entries[text]; ok {
		c.order.MoveToFront(el)
		tokens := el.Value.(*cacheEntry).tokens
		c.mu.Unlock()
		return tokens
	}
	c.mu.Unlock()

	tokens := tokenize(text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[text]; ok {
		return el.Value.(*cacheEntry).tokens
	}
	c.entries[text] = c.order.PushFront(&cacheEntry{text, tokens})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).text)
	}
	return tokens
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// defaultCache holds the package level *Cache.
var defaultCache atomic.Value

func init() {
	defaultCache.Store(NewCache(DefaultCacheSize))
}

// SetDefaultCacheSize replaces the package level cache. It may be called
// while other goroutines tokenize.
func SetDefaultCacheSize(size int) {
	defaultCache.Store(NewCache(size))
}

func sharedCache() *Cache {
	return defaultCache.Load().(*Cache)
}

// Tokenize lexes text using the package level cache.
func Tokenize(text string) []Token {
	return sharedCache().Tokenize(text)
}
