package memory

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"psych-assessment-service/internal/domain"
)

// RecordLoader is the backing store the cache reads through to.
type RecordLoader interface {
	SaveRecord(ctx context.Context, record domain.AssessmentRecord) error
	ListRecords(ctx context.Context, userID string, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error)
	DeleteUserData(ctx context.Context, userID string) (int, error)
}

// HistoryCache caches history queries with TTL so dashboards don't hit the
// store on every refresh. Saves go straight through and invalidate the user's entries.
type HistoryCache struct {
	loader RecordLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand

	mu          sync.RWMutex
	cache       map[string]cachedHistory
	generations map[string]uint64 // by user ID, bumped on every save
}

type cachedHistory struct {
	records   []domain.AssessmentRecord
	expiresAt time.Time
}

func NewHistoryCache(loader RecordLoader, ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		loader:      loader,
		ttl:         ttl,
		clock:       time.Now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:       make(map[string]cachedHistory),
		generations: make(map[string]uint64),
	}
}

func (c *HistoryCache) SaveRecord(ctx context.Context, record domain.AssessmentRecord) error {
	if err := c.loader.SaveRecord(ctx, record); err != nil {
		return err
	}
	c.mu.Lock()
	c.generations[record.UserID]++
	for _, kind := range []domain.InstrumentKind{"", record.Instrument} {
		delete(c.cache, cacheKey(record.UserID, kind))
	}
	c.mu.Unlock()
	return nil
}

func (c *HistoryCache) DeleteUserData(ctx context.Context, userID string) (int, error) {
	n, err := c.loader.DeleteUserData(ctx, userID)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.generations[userID]++
	for key := range c.cache {
		if strings.HasPrefix(key, userID+":") {
			delete(c.cache, key)
		}
	}
	c.mu.Unlock()
	return n, nil
}

func (c *HistoryCache) ListRecords(ctx context.Context, userID string, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error) {
	key := cacheKey(userID, kind)
	if records, ok := c.lookup(key); ok {
		return records, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if records, ok := c.lookup(key); ok {
			return records, nil
		}

		c.mu.RLock()
		gen := c.generations[userID]
		c.mu.RUnlock()

		records, err := c.loader.ListRecords(ctx, userID, kind)
		if err != nil {
			return nil, err
		}

		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		// a save that raced with the load makes the result stale
		if c.generations[userID] == gen {
			c.cache[key] = cachedHistory{records: records, expiresAt: expiresAt}
		}
		c.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return copyRecords(result.([]domain.AssessmentRecord)), nil
}

func (c *HistoryCache) lookup(key string) ([]domain.AssessmentRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return copyRecords(entry.records), true
}

func (c *HistoryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func cacheKey(userID string, kind domain.InstrumentKind) string {
	if kind == "" {
		return userID + ":all"
	}
	return userID + ":" + string(kind)
}

func copyRecords(in []domain.AssessmentRecord) []domain.AssessmentRecord {
	out := make([]domain.AssessmentRecord, len(in))
	copy(out, in)
	return out
}
