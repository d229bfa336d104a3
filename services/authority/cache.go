package authority

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/udehnih/review-rating/models"
	"github.com/udehnih/review-rating/repositories"
)

// cacheEntry holds the authorities of one subject
type cacheEntry struct {
	subject     string
	authorities []string
	insertedAt  time.Time
	element     *list.Element // LRU position
}

// CachedRepository is an LRU cache with TTL in front of an
// AuthorityRepository. Grants and revocations made through it drop the
// subject's entry, so this process sees its own writes immediately.
type CachedRepository struct {
	next repositories.AuthorityRepository

	mu      sync.Mutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	clock   clock.Clock
	hits    uint64
	misses  uint64
	// epoch increments on every invalidation. A load started under an
	// older epoch is not stored.
	epoch uint64
}

var _ repositories.AuthorityRepository = (*CachedRepository)(nil)

// NewCachedRepository wraps next with a cache of at most maxSize subjects
func NewCachedRepository(next repositories.AuthorityRepository, maxSize int, ttl time.Duration, clk clock.Clock) *CachedRepository {
	if clk == nil {
		clk = clock.WallClock
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	return &CachedRepository{
		next:    next,
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		clock:   clk,
	}
}

// FindAuthorities returns the cached authorities of subject, loading them on a miss.
// Callers get their own copy of the slice.
func (c *CachedRepository) FindAuthorities(ctx context.Context, subject string) ([]string, error) {
	cached, epoch, ok := c.get(subject)
	if ok {
		return cached, nil
	}

	authorities, err := c.next.FindAuthorities(ctx, subject)
	if err != nil {
		return nil, err
	}
	c.set(subject, authorities, epoch)
	return append([]string(nil), authorities...), nil
}

// Grant stores grant and drops the cached entry of its subject
func (c *CachedRepository) Grant(ctx context.Context, grant *models.UserAuthority) error {
	err := c.next.Grant(ctx, grant)
	c.Invalidate(grant.Subject)
	return err
}

// Revoke removes a grant and drops the cached entry of subject
func (c *CachedRepository) Revoke(ctx context.Context, subject, authority string) error {
	err := c.next.Revoke(ctx, subject, authority)
	c.Invalidate(subject)
	return err
}

func (c *CachedRepository) get(subject string) ([]string, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[subject]
	if !exists || c.isExpired(entry) {
		c.misses++
		if exists {
			c.removeEntry(subject)
		}
		return nil, c.epoch, false
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++
	return append([]string(nil), entry.authorities...), c.epoch, true
}

// set stores authorities unless an invalidation happened after epoch was read
func (c *CachedRepository) set(subject string, authorities []string, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		return
	}

	stored := append([]string(nil), authorities...)
	if entry, exists := c.entries[subject]; exists {
		entry.authorities = stored
		entry.insertedAt = c.clock.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		subject:     subject,
		authorities: stored,
		insertedAt:  c.clock.Now(),
	}
	entry.element = c.lruList.PushFront(subject)
	c.entries[subject] = entry
}

// Invalidate drops the cached entry of subject
func (c *CachedRepository) Invalidate(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.removeEntry(subject)
}

// Clear removes all entries
func (c *CachedRepository) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Stats returns cache statistics
func (c *CachedRepository) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

// CleanupExpired removes all expired entries and returns how many were removed
func (c *CachedRepository) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for subject, entry := range c.entries {
		if c.isExpired(entry) {
			c.removeEntry(subject)
			removed++
		}
	}
	return removed
}

// Run calls CleanupExpired every interval until ctx is done
func (c *CachedRepository) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(interval):
			c.CleanupExpired()
		}
	}
}

// must be called with lock held
func (c *CachedRepository) isExpired(e *cacheEntry) bool {
	return c.clock.Now().Sub(e.insertedAt) >= c.ttl
}

// must be called with lock held
func (c *CachedRepository) removeEntry(subject string) {
	if entry, exists := c.entries[subject]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, subject)
	}
}

// must be called with lock held
func (c *CachedRepository) evictLRU() {
	if back := c.lruList.Back(); back != nil {
		subject := back.Value.(string)
		c.lruList.Remove(back)
		delete(c.entries, subject)
	}
}
