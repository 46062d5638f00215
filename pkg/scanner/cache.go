package scanner

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/samanbooks/samanbooks/pkg/models"
)

// AuthorFinder finds or creates authors by name.
type AuthorFinder interface {
	FindOrCreateAuthor(ctx context.Context, name string) (*models.Author, bool, error)
}

// scanCache remembers the authors resolved during one scan so a library
// full of books by the same people doesn't look each of them up per file.
// Entries are keyed by the normalized name.
type scanCache struct {
	authors  sync.Map // map[string]*models.Author
	authorMu sync.Map // map[string]*sync.Mutex

	// pending holds the keys stored since the last commit or rollback.
	pendingMu sync.Mutex
	pending   []string

	lookups atomic.Int64
}

func newScanCache() *scanCache {
	return &scanCache{}
}

func getMutex(mutexMap *sync.Map, key any) *sync.Mutex {
	mu, _ := mutexMap.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// findOrCreateAuthor returns the cached author for name or asks svc. The
// created flag is only true for the call that actually created it.
func (c *scanCache) findOrCreateAuthor(ctx context.Context, name string, svc AuthorFinder) (*models.Author, bool, error) {
	key := models.NameKey(name)

	if val, ok := c.authors.Load(key); ok {
		return val.(*models.Author), false, nil
	}

	mu := getMutex(&c.authorMu, key)
	mu.Lock()
	defer mu.Unlock()

	if val, ok := c.authors.Load(key); ok {
		return val.(*models.Author), false, nil
	}

	author, created, err := svc.FindOrCreateAuthor(ctx, name)
	if err != nil {
		return nil, false, err
	}

	c.authors.Store(key, author)
	c.lookups.Add(1)
	c.pendingMu.Lock()
	c.pending = append(c.pending, key)
	c.pendingMu.Unlock()
	return author, created, nil
}

// commit keeps the entries stored since the last commit or rollback.
func (c *scanCache) commit() {
	c.pendingMu.Lock()
	c.pending = nil
	c.pendingMu.Unlock()
}

// rollback forgets the entries stored since the last commit or rollback,
// for when the transaction that looked them up was rolled back.
func (c *scanCache) rollback() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for _, key := range c.pending {
		c.authors.Delete(key)
	}
	c.pending = nil
}

// authorLookups is how many times the cache had to go to the service.
func (c *scanCache) authorLookups() int {
	return int(c.lookups.Load())
}
