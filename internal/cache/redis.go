package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"DirectorySync/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultKeyPrefix = "directory:enrich:"

var _ EnrichmentCache = (*RedisCache)(nil)

type redisEntry struct {
	Value     *model.Enrichment `json:"value"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// RedisCache 多实例共享的富化缓存。Redis 出错只记日志并按未命中处理。
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	logger *logrus.Logger
	now    func() time.Time
}

// NewRedisCache redisURL 形如 redis://:pass@host:6379/0，启动时 Ping 一次
func NewRedisCache(redisURL, prefix string, logger *logrus.Logger) (*RedisCache, error) {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("解析 redis_url 失败: %w", err)
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{rdb: rdb, prefix: prefix, logger: logger, now: time.Now}, nil
}

func (c *RedisCache) key(externalID string) string { return c.prefix + externalID }

func (c *RedisCache) Get(ctx context.Context, externalID string) (*model.Enrichment, bool) {
	raw, err := c.rdb.Get(ctx, c.key(externalID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("external_id", externalID).Warn("读取富化缓存失败，按未命中处理")
		}
		return nil, false
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.WithError(err).WithField("external_id", externalID).Warn("富化缓存数据损坏，按未命中处理")
		return nil, false
	}
	if entry.Value == nil || !entry.ExpiresAt.After(c.now()) {
		return nil, false
	}
	return entry.Value, true
}

func (c *RedisCache) Put(ctx context.Context, externalID string, e *model.Enrichment, ttl time.Duration) {
	if e == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(redisEntry{Value: e, ExpiresAt: c.now().Add(ttl)})
	if err != nil {
		c.logger.WithError(err).WithField("external_id", externalID).Warn("序列化富化数据失败")
		return
	}
	if err := c.rdb.Set(ctx, c.key(externalID), raw, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("external_id", externalID).Warn("写入富化缓存失败")
	}
}

// Close 关闭 Redis 连接
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
