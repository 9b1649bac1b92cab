// Package cache 富化数据缓存：按外部 ID 存放短期易变字段（评分、照片、营业时间），到期即视为缺失。
package cache

import (
	"context"
	"fmt"
	"time"

	"DirectorySync/internal/config"
	"DirectorySync/internal/model"

	"github.com/sirupsen/logrus"
)

// EnrichmentCache 富化缓存契约。
// Get 在 expiresAt <= now 时与不存在等价；同 key 并发 Put 以最后一次为准。
type EnrichmentCache interface {
	Get(ctx context.Context, externalID string) (*model.Enrichment, bool)
	Put(ctx context.Context, externalID string, e *model.Enrichment, ttl time.Duration)
}

// New 按 cache.backend 创建缓存实例
func New(cfg *config.CacheConfig, logger *logrus.Logger) (EnrichmentCache, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(cfg.MaxEntries), nil
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("cache.backend=redis 但未配置 redis_url")
		}
		return NewRedisCache(cfg.RedisURL, cfg.KeyPrefix, logger)
	default:
		return nil, fmt.Errorf("未知的缓存后端: %s", cfg.Backend)
	}
}
