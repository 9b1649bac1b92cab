package service

import (
	"context"
	"fmt"
	"strings"

	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"

	"github.com/sirupsen/logrus"
)

type SyncService struct {
	provider   interfaces.PlaceProvider
	reconciler *Reconciler
	categories interfaces.CategoryRepository
	logger     *logrus.Logger
}

func NewSyncService(provider interfaces.PlaceProvider, reconciler *Reconciler, categories interfaces.CategoryRepository, logger *logrus.Logger) *SyncService {
	return &SyncService{
		provider:   provider,
		reconciler: reconciler,
		categories: categories,
		logger:     logger,
	}
}

// SyncQuery 手动同步：外部搜索后同步入库，返回统计
func (s *SyncService) SyncQuery(ctx context.Context, term, location string, categoryID *uint64) (model.SyncStats, error) {
	if s.provider == nil {
		return model.SyncStats{}, fmt.Errorf("%w: no provider configured", interfaces.ErrProviderUnavailable)
	}
	term = strings.TrimSpace(term)
	if term == "" && categoryID != nil {
		c, err := s.categories.GetByID(ctx, *categoryID)
		if err != nil {
			return model.SyncStats{}, fmt.Errorf("查询分类%d失败: %w", *categoryID, err)
		}
		term = c.Name
	}
	if term == "" {
		return model.SyncStats{}, fmt.Errorf("同步关键词不能为空")
	}

	places, err := s.provider.Search(ctx, model.SearchRequest{Query: term, Location: location})
	if err != nil {
		return model.SyncStats{}, fmt.Errorf("%s搜索失败: %w", s.provider.Name(), err)
	}
	if len(places) == 0 {
		s.logger.WithField("query", term).Warn("外部数据源未返回任何记录")
		return model.SyncStats{}, nil
	}

	stats := s.reconciler.Sync(ctx, places, categoryID)
	s.logger.WithFields(logrus.Fields{
		"query":   term,
		"fetched": len(places),
		"saved":   stats.Saved,
		"skipped": stats.Skipped,
		"errors":  stats.Errors,
	}).Info("手动同步完成")
	return stats, nil
}

// RunJob 供后台队列调用
func (s *SyncService) RunJob(ctx context.Context, job model.SyncJob) model.SyncStats {
	return s.reconciler.Sync(ctx, job.Places, job.CategoryID)
}
