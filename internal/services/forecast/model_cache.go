package forecast

import (
	"container/list"
	"fmt"
	"sync"
)

// trainedModel is a fitted forest with the scaler it was trained under.
type trainedModel struct {
	forest  *Forest
	scaler  *standardScaler
	trained int // number of training rows, for observability
}

// ModelCache is a bounded LRU of trained models keyed by (ticker, horizon).
// It is an explicit, injected dependency so tests control reuse and the
// bound is enforced in one place.
type ModelCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List
}

type cacheItem struct {
	key   string
	model *trainedModel
}

// NewModelCache creates a model cache holding at most maxSize models.
func NewModelCache(maxSize int) *ModelCache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &ModelCache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func modelKey(ticker string, horizonDays int) string {
	return fmt.Sprintf("%s|%d", ticker, horizonDays)
}

func (c *ModelCache) get(ticker string, horizonDays int) (*trainedModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[modelKey(ticker, horizonDays)]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).model, true
}

func (c *ModelCache) put(ticker string, horizonDays int, m *trainedModel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := modelKey(ticker, horizonDays)
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheItem).model = m
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheItem{key: key, model: m})
	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheItem).key)
	}
}

// Len returns the number of cached models.
func (c *ModelCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Invalidate drops the cached model for one (ticker, horizon).
func (c *ModelCache) Invalidate(ticker string, horizonDays int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := modelKey(ticker, horizonDays)
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}
