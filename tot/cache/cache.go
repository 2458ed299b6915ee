// Package cache implements the semantic deduplication cache: a
// per-namespace vector index with cosine-similarity lookup and
// threshold-gated hits, FIFO eviction on overflow.
package cache

import (
	"container/list"
	"context"
	"math"
	"sync"

	"github.com/tot-engine/tot-go/tot/gateway"
)

// Entry is one cached key→payload association.
type Entry struct {
	KeyText string
	Vector  []float64
	Payload interface{}
}

// namespaceIndex holds one namespace's FIFO-ordered entries. order
// preserves insertion order for eviction and its elements hold the
// *Entry (key, vector and payload together); byKey maps a key text to
// its list element so a re-insert or eviction needs no linear search.
type namespaceIndex struct {
	mu       sync.RWMutex
	order    *list.List // list of *Entry, front = oldest
	byKey    map[string]*list.Element
	maxItems int
}

func newNamespaceIndex(maxItems int) *namespaceIndex {
	return &namespaceIndex{
		order:    list.New(),
		byKey:    make(map[string]*list.Element),
		maxItems: maxItems,
	}
}

// Cache is a process-wide, namespace-partitioned semantic cache shared
// across runs. One Cache instance is typically created per Gateway and
// reused by every run the process drives, matching the spec's
// "process-wide" ownership note.
type Cache struct {
	gw                  *gateway.Gateway
	similarityThreshold float64
	modelTag            string
	maxEntries          int

	mu         sync.Mutex // guards the namespaces map itself, not its contents
	namespaces map[string]*namespaceIndex
}

// New returns a Cache consulting gw for embeddings. threshold is the
// default similarity_threshold (0,1]; maxEntries is the default
// max_entries per namespace. modelTag selects which embedding model the
// gateway should use.
func New(gw *gateway.Gateway, threshold float64, maxEntries int, modelTag string) *Cache {
	return &Cache{
		gw:                  gw,
		similarityThreshold: threshold,
		modelTag:            modelTag,
		maxEntries:          maxEntries,
		namespaces:          make(map[string]*namespaceIndex),
	}
}

func (c *Cache) indexFor(namespace string, maxEntries int) *namespaceIndex {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.namespaces[namespace]
	if !ok {
		if maxEntries <= 0 {
			maxEntries = c.maxEntries
		}
		if maxEntries <= 0 {
			maxEntries = 500
		}
		idx = newNamespaceIndex(maxEntries)
		c.namespaces[namespace] = idx
	}
	return idx
}

// Lookup embeds queryText and returns the payload of the closest cached
// entry in namespace if its cosine similarity is at or above threshold.
// Embedding failures are not fatal: they return ok=false so the caller
// falls back to direct computation, per the spec's failure semantics.
func (c *Cache) Lookup(ctx context.Context, namespace, queryText string) (payload interface{}, similarity float64, ok bool) {
	vecs, err := c.gw.EmbedCall(ctx, []string{queryText}, c.modelTag)
	if err != nil || len(vecs) == 0 {
		return nil, 0, false
	}
	query := normalize(vecs[0])

	idx := c.indexFor(namespace, 0)
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var best *Entry
	var bestSim float64
	for e := idx.order.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*Entry)
		sim := cosineSimilarity(query, entry.Vector)
		if best == nil || sim > bestSim {
			best = entry
			bestSim = sim
		}
	}

	if best == nil || bestSim < c.similarityThreshold {
		return nil, bestSim, false
	}
	return best.Payload, bestSim, true
}

// Insert embeds keyText and appends (keyText, payload) to namespace,
// evicting the oldest entry if namespace is at capacity. Embedding
// failures are swallowed: a cache that cannot insert simply caches
// nothing for this call, which is safe (just slower on the next lookup).
func (c *Cache) Insert(ctx context.Context, namespace, keyText string, payload interface{}) {
	vecs, err := c.gw.EmbedCall(ctx, []string{keyText}, c.modelTag)
	if err != nil || len(vecs) == 0 {
		return
	}
	vector := normalize(vecs[0])

	idx := c.indexFor(namespace, 0)
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.byKey[keyText]; ok {
		idx.order.Remove(existing)
		delete(idx.byKey, keyText)
	}

	entry := &Entry{KeyText: keyText, Vector: vector, Payload: payload}
	elem := idx.order.PushBack(entry)
	idx.byKey[keyText] = elem

	for idx.order.Len() > idx.maxItems {
		oldest := idx.order.Front()
		if oldest == nil {
			break
		}
		oldestEntry := oldest.Value.(*Entry)
		idx.order.Remove(oldest)
		delete(idx.byKey, oldestEntry.KeyText)
	}
}

// SetMaxEntries overrides the per-namespace capacity for namespace,
// creating it if necessary, so callers can apply a run's
// RunConfig.Cache.MaxEntries before the first insert.
func (c *Cache) SetMaxEntries(namespace string, maxEntries int) {
	idx := c.indexFor(namespace, maxEntries)
	idx.mu.Lock()
	idx.maxItems = maxEntries
	idx.mu.Unlock()
}

// Len returns the number of entries currently cached in namespace.
func (c *Cache) Len(namespace string) int {
	idx := c.indexFor(namespace, 0)
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.order.Len()
}

func normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	scale := 1.0 / math.Sqrt(norm)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * scale
	}
	return out
}

func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot
}
