package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"psych-assessment-service/internal/domain"
)

// RecordLoader is the durable store behind the cache (Postgres, Mongo).
type RecordLoader interface {
	SaveRecord(ctx context.Context, record domain.AssessmentRecord) error
	ListRecords(ctx context.Context, userID string, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error)
	DeleteUserData(ctx context.Context, userID string) (int, error)
}

var errStaleLoad = errors.New("history changed during load")

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// HistoryCache caches a user's history queries in Redis as JSON and falls back
// to the loader on a miss. Keys look like:
//
//	assessment:history:{userID}:{instrument|all}
//	assessment:history:{userID}:gen
//
// Saves write through, bump the user's generation and drop the cached lists.
// A load only fills the cache if the generation did not move while it ran.
type HistoryCache struct {
	client *redis.Client
	loader RecordLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewHistoryCache(client *redis.Client, loader RecordLoader, ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *HistoryCache) SaveRecord(ctx context.Context, record domain.AssessmentRecord) error {
	if err := c.loader.SaveRecord(ctx, record); err != nil {
		return err
	}
	// a stale list is worse than a miss, but the record is already stored
	_ = c.invalidate(ctx, record.UserID, "", record.Instrument)
	return nil
}

// DeleteUserData removes every stored record of userID and drops all of the
// user's cached lists.
func (c *HistoryCache) DeleteUserData(ctx context.Context, userID string) (int, error) {
	n, err := c.loader.DeleteUserData(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = c.invalidate(ctx, userID, "", domain.InstrumentDASS21, domain.InstrumentDSM5, domain.InstrumentWHOQOL)
	return n, nil
}

func (c *HistoryCache) invalidate(ctx context.Context, userID string, kinds ...domain.InstrumentKind) error {
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, historyKey(userID, kind))
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(userID))
		pipe.Del(ctx, keys...)
		return nil
	})
	return err
}

func (c *HistoryCache) ListRecords(ctx context.Context, userID string, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error) {
	key := historyKey(userID, kind)
	if records, ok := c.lookup(ctx, key); ok {
		return records, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if records, ok := c.lookup(ctx, key); ok {
			return records, nil
		}

		gen, genErr := c.generation(ctx, c.client, userID)
		records, err := c.loader.ListRecords(ctx, userID, kind)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			_ = c.fill(ctx, userID, key, gen, records)
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	records := result.([]domain.AssessmentRecord)
	out := make([]domain.AssessmentRecord, len(records))
	copy(out, records)
	return out, nil
}

// fill stores records under key unless a save bumped the user's generation
// after gen was read.
func (c *HistoryCache) fill(ctx context.Context, userID, key string, gen int64, records []domain.AssessmentRecord) error {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}
	genKey := generationKey(userID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, errStaleLoad) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *HistoryCache) generation(ctx context.Context, getter stringGetter, userID string) (int64, error) {
	gen, err := getter.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *HistoryCache) lookup(ctx context.Context, key string) ([]domain.AssessmentRecord, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var records []domain.AssessmentRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false
	}
	return records, true
}

func (c *HistoryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func historyKey(userID string, kind domain.InstrumentKind) string {
	if kind == "" {
		return "assessment:history:" + userID + ":all"
	}
	return "assessment:history:" + userID + ":" + string(kind)
}

func generationKey(userID string) string {
	return "assessment:history:" + userID + ":gen"
}
