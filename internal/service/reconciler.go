package service

import (
	"context"
	"errors"

	"DirectorySync/internal/config"
	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"
	"DirectorySync/internal/utils/address"
	"DirectorySync/internal/utils/slug"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type recordOutcome int

const (
	outcomeSaved recordOutcome = iota
	outcomeSkipped
	outcomeError
)

// Reconciler 把外部数据源的原始记录写入本地库。
// external_id 是幂等键：已存在的记录直接跳过，不更新任何字段。
type Reconciler struct {
	repo          interfaces.BusinessRepository
	slugs         *SlugAssigner
	insertRetries int
	logger        *logrus.Logger
}

func NewReconciler(repo interfaces.BusinessRepository, cfg *config.SyncConfig, logger *logrus.Logger) *Reconciler {
	retries := cfg.InsertRetries
	if retries < 0 {
		retries = 0
	}
	return &Reconciler{
		repo:          repo,
		slugs:         NewSlugAssigner(repo),
		insertRetries: retries,
		logger:        logger,
	}
}

// Sync 逐条入库，单条失败只计数，不中断批次
func (r *Reconciler) Sync(ctx context.Context, places []*model.RawPlace, categoryID *uint64) model.SyncStats {
	var stats model.SyncStats
	for _, p := range places {
		if ctx.Err() != nil {
			// 批次超时：剩余记录计为错误
			stats.Errors++
			continue
		}
		switch r.syncOne(ctx, p, categoryID) {
		case outcomeSaved:
			stats.Saved++
		case outcomeSkipped:
			stats.Skipped++
		default:
			stats.Errors++
		}
	}

	r.logger.WithFields(logrus.Fields{
		"saved":   stats.Saved,
		"skipped": stats.Skipped,
		"errors":  stats.Errors,
	}).Info("外部记录入库完成")
	return stats
}

func (r *Reconciler) syncOne(ctx context.Context, p *model.RawPlace, categoryID *uint64) recordOutcome {
	if p == nil || p.ExternalID == "" || p.Name == "" {
		r.logger.Warn("外部记录缺少 external_id 或名称，跳过入库")
		return outcomeError
	}
	log := r.logger.WithField("external_id", p.ExternalID)

	existing, err := r.repo.FindByExternalID(ctx, p.ExternalID)
	if err != nil {
		log.WithError(err).Error("按 external_id 查询失败")
		return outcomeError
	}
	if existing != nil {
		return outcomeSkipped
	}

	b := newBusinessFromPlace(p, categoryID)
	base := slug.Normalize(p.Name)
	next := 0
	for attempt := 0; attempt <= r.insertRetries; attempt++ {
		s, suffix, err := r.slugs.assignFrom(ctx, base, next)
		if err != nil {
			if errors.Is(err, ErrSlugExhausted) {
				log.WithError(err).Error("slug 候选耗尽，放弃该记录")
			} else {
				log.WithError(err).Error("分配 slug 失败")
			}
			return outcomeError
		}
		b.Slug = s

		violation, err := r.repo.Insert(ctx, b)
		if err != nil {
			log.WithError(err).Error("写入商家失败")
			return outcomeError
		}
		if violation == nil {
			log.WithField("slug", b.Slug).Debug("外部记录已入库")
			return outcomeSaved
		}
		if violation.Column == model.ColumnExternalID {
			// 并发写入者先一步落库
			return outcomeSkipped
		}
		log.WithFields(logrus.Fields{
			"slug":    b.Slug,
			"attempt": attempt + 1,
		}).Warn("slug 冲突，重新分配")
		next = suffix + 1
	}

	log.WithField("retries", r.insertRetries).Error("slug 冲突重试次数用尽")
	return outcomeError
}

// newBusinessFromPlace 外部数据源记录默认可信（verified），入库时只带一张代表图
func newBusinessFromPlace(p *model.RawPlace, categoryID *uint64) *model.Business {
	comps := address.Parse(p.FormattedAddress)
	externalID := p.ExternalID

	b := &model.Business{
		ExternalID:  &externalID,
		Name:        p.Name,
		Address:     p.FormattedAddress,
		City:        address.OrEmpty(comps.City),
		State:       address.OrEmpty(comps.Region),
		PostalCode:  address.OrEmpty(comps.PostalCode),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		CategoryID:  categoryID,
		PriceTier:   p.PriceTier,
		RatingCount: p.RatingCount,
		Verified:    true,
	}
	if p.Rating != nil {
		b.Rating = decimal.NewFromFloat(*p.Rating).Round(2)
	}
	b.Featured = model.ComputeFeatured(b.Rating, b.RatingCount)

	var photos []string
	if len(p.PhotoRefs) > 0 {
		photos = p.PhotoRefs[:1]
	}
	b.SetPhotos(photos)
	return b
}
