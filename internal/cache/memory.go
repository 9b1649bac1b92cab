package cache

import (
	"context"
	"time"

	"DirectorySync/internal/model"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const shardCount = 16

var _ EnrichmentCache = (*MemoryCache)(nil)

type memoryEntry struct {
	value     *model.Enrichment
	expiresAt time.Time
}

// MemoryCache 分片 LRU + TTL，不同 key 大概率落在不同分片，互不争锁
type MemoryCache struct {
	shards [shardCount]*lru.Cache[string, memoryEntry]
	now    func() time.Time
}

// NewMemoryCache maxEntries <= 0 时每个分片给一个较大的默认容量
func NewMemoryCache(maxEntries int) *MemoryCache {
	perShard := maxEntries / shardCount
	if maxEntries <= 0 {
		perShard = 4096
	}
	if perShard < 1 {
		perShard = 1
	}

	c := &MemoryCache{now: time.Now}
	for i := range c.shards {
		// size > 0 时 lru.New 不会返回错误
		c.shards[i], _ = lru.New[string, memoryEntry](perShard)
	}
	return c
}

// WithClock 替换时钟（测试用）
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) shard(key string) *lru.Cache[string, memoryEntry] {
	return c.shards[xxhash.Sum64String(key)%shardCount]
}

func (c *MemoryCache) Get(_ context.Context, externalID string) (*model.Enrichment, bool) {
	s := c.shard(externalID)
	entry, ok := s.Get(externalID)
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.After(c.now()) {
		s.Remove(externalID)
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Put(_ context.Context, externalID string, e *model.Enrichment, ttl time.Duration) {
	if e == nil || ttl <= 0 {
		return
	}
	c.shard(externalID).Add(externalID, memoryEntry{value: e, expiresAt: c.now().Add(ttl)})
}

// Len 当前条目数（含已过期未清理的）
func (c *MemoryCache) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}
