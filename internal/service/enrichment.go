package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DirectorySync/internal/cache"
	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// detailFetchTimeout 合并请求的上限，需覆盖限流冷却重试
const detailFetchTimeout = 2 * time.Minute

// EnrichmentService 富化数据读取：先查缓存，未命中再请求外部数据源并回填
type EnrichmentService struct {
	provider interfaces.PlaceProvider
	cache    cache.EnrichmentCache
	ttl      time.Duration
	fields   []string
	logger   *logrus.Logger
	group    singleflight.Group
}

// NewEnrichmentService provider 为 nil 时只读缓存
func NewEnrichmentService(provider interfaces.PlaceProvider, c cache.EnrichmentCache, ttl time.Duration, fields []string, logger *logrus.Logger) *EnrichmentService {
	return &EnrichmentService{
		provider: provider,
		cache:    c,
		ttl:      ttl,
		fields:   fields,
		logger:   logger,
	}
}

// Get 同一 key 的并发未命中合并为一次外部请求
func (s *EnrichmentService) Get(ctx context.Context, externalID string) (*model.Enrichment, error) {
	if e, ok := s.cache.Get(ctx, externalID); ok {
		s.logger.WithField("external_id", externalID).Debug("富化缓存命中")
		return e, nil
	}
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no provider configured", interfaces.ErrProviderUnavailable)
	}
	s.logger.WithField("external_id", externalID).Debug("富化缓存未命中")

	// 合并后的外部请求不随任一调用方取消；各调用方只按自己的 ctx 放弃等待
	ch := s.group.DoChan(externalID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), detailFetchTimeout)
		defer cancel()
		e, err := s.provider.FetchDetail(fetchCtx, externalID, s.fields)
		if err != nil {
			return nil, err
		}
		s.cache.Put(fetchCtx, externalID, e, s.ttl)
		return e, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Enrichment), nil
	}
}

// EnrichViews 并发富化前 limit 条带 external_id 的结果，成功的条目标记为 hybrid。
// 富化失败只记日志，返回成功条数。
func (s *EnrichmentService) EnrichViews(ctx context.Context, views []*model.BusinessView, limit int) int {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	picked := 0
	for _, v := range views {
		if picked >= limit {
			break
		}
		if v.ExternalID == "" {
			continue
		}
		picked++
		wg.Go(func() {
			e, err := s.Get(ctx, v.ExternalID)
			if err != nil {
				s.logger.WithError(err).WithField("external_id", v.ExternalID).Warn("富化失败，保留本地数据")
				return
			}
			ApplyEnrichment(v, e)
			mu.Lock()
			applied++
			mu.Unlock()
		})
	}
	wg.Wait()
	return applied
}

// ApplyEnrichment 用实时数据覆盖易变字段；照片在已有顺序之后追加
func ApplyEnrichment(v *model.BusinessView, e *model.Enrichment) {
	if e == nil {
		return
	}
	if e.Rating != nil {
		v.Rating = decimal.NewFromFloat(*e.Rating).Round(2)
		v.HasRating = true
	}
	if e.RatingCount != nil {
		v.RatingCount = *e.RatingCount
	}
	if e.PriceTier != nil {
		v.PriceTier = e.PriceTier
	}
	if e.OpenNow != nil {
		v.OpenNow = e.OpenNow
	}
	if len(e.Hours) > 0 {
		v.Hours = e.Hours
	}
	if e.Website != "" {
		v.Website = e.Website
	}
	if e.Phone != "" {
		v.Phone = e.Phone
	}
	v.Photos = model.MergePhotos(v.Photos, e.Photos)
	v.Provenance = model.ProvenanceHybrid
}
