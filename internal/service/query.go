package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"DirectorySync/internal/config"
	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"
	"DirectorySync/internal/repository"
	"DirectorySync/internal/utils/address"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// QueryService 查询编排：本地库优先，不足一页时补外部结果并后台入库
type QueryService struct {
	repo       interfaces.BusinessRepository
	categories interfaces.CategoryRepository
	provider   interfaces.PlaceProvider
	enrich     *EnrichmentService
	dispatcher interfaces.SyncDispatcher
	cfg        *config.QueryConfig
	logger     *logrus.Logger
}

// NewQueryService provider 为 nil 时永远只查本地；dispatcher 为 nil 时不做后台入库
func NewQueryService(
	repo interfaces.BusinessRepository,
	categories interfaces.CategoryRepository,
	provider interfaces.PlaceProvider,
	enrich *EnrichmentService,
	dispatcher interfaces.SyncDispatcher,
	cfg *config.QueryConfig,
	logger *logrus.Logger,
) *QueryService {
	return &QueryService{
		repo:       repo,
		categories: categories,
		provider:   provider,
		enrich:     enrich,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Query 单次查询。本地库失败返回错误；外部数据源失败降级为仅本地结果。
func (s *QueryService) Query(ctx context.Context, p model.QueryParams) (*model.QueryResult, error) {
	page, pageSize := s.normalizePage(p)
	sortOrder := p.Sort
	if sortOrder == "" {
		sortOrder = model.SortDefault
	}
	filter := toFilter(p)
	offset := (page - 1) * pageSize

	local, total, err := s.repo.Query(ctx, filter, sortOrder, model.PageWindow{Offset: offset, Limit: pageSize})
	if err != nil {
		return nil, fmt.Errorf("查询本地商家失败: %w", err)
	}

	searchTerm, err := s.searchTerm(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(local) >= pageSize || s.provider == nil || searchTerm == "" {
		return s.localResult(ctx, local, total, p, sortOrder, page, pageSize, true), nil
	}

	externals, err := s.provider.Search(ctx, model.SearchRequest{Query: searchTerm})
	if err != nil {
		s.logger.WithError(err).WithField("query", searchTerm).Warn("外部数据源不可用，降级为本地结果")
		return s.localResult(ctx, local, total, p, sortOrder, page, pageSize, false), nil
	}
	if len(externals) == 0 {
		return s.localResult(ctx, local, total, p, sortOrder, page, pageSize, false), nil
	}

	if s.dispatcher != nil {
		job := model.SyncJob{Places: externals, CategoryID: p.CategoryID, Source: "query"}
		if !s.dispatcher.Enqueue(job) {
			s.logger.WithField("count", len(externals)).Warn("入库队列已满，本批外部记录未入库")
		}
	}

	// 合并需要本地结果的完整前缀，才能在合并后重新排序切片
	prefix := local
	if offset > 0 {
		prefix, total, err = s.repo.Query(ctx, filter, sortOrder, model.PageWindow{Offset: 0, Limit: offset + pageSize})
		if err != nil {
			return nil, fmt.Errorf("查询本地商家失败: %w", err)
		}
	}

	fresh, err := s.freshExternals(ctx, externals, p)
	if err != nil {
		return nil, err
	}

	merged := make([]*model.BusinessView, 0, len(prefix)+len(fresh))
	for _, b := range prefix {
		merged = append(merged, BusinessToView(b))
	}
	merged = append(merged, fresh...)
	SortViews(merged, sortOrder)

	total += int64(len(fresh))
	items := window(merged, offset, pageSize)

	source := model.ProvenanceLocal
	switch {
	case len(fresh) > 0 && len(prefix) > 0:
		source = model.ProvenanceHybrid
	case len(fresh) > 0:
		source = model.ProvenanceExternal
	}

	s.logger.WithFields(logrus.Fields{
		"query":     searchTerm,
		"local":     len(prefix),
		"external":  len(fresh),
		"page":      page,
		"page_size": pageSize,
		"source":    source,
	}).Info("混合查询完成")

	return &model.QueryResult{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasMore:  int64(offset+len(items)) < total,
		Source:   source,
	}, nil
}

// GetBySlug 商家详情；有 external_id 时尝试实时富化
func (s *QueryService) GetBySlug(ctx context.Context, slug string) (*model.BusinessView, error) {
	b, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("查询商家失败: %w", err)
	}
	if b == nil {
		return nil, repository.ErrNotFound
	}

	view := BusinessToView(b)
	if view.ExternalID != "" && s.enrich != nil {
		e, err := s.enrich.Get(ctx, view.ExternalID)
		if err != nil {
			s.logger.WithError(err).WithField("slug", slug).Warn("详情富化失败，返回本地数据")
		} else {
			ApplyEnrichment(view, e)
		}
	}
	return view, nil
}

// ListCategories 分类列表
func (s *QueryService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categories.List(ctx)
}

func (s *QueryService) normalizePage(p model.QueryParams) (int, int) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	switch {
	case p.All:
		size = s.cfg.AllCap
	case size <= 0:
		size = s.cfg.DefaultPageSize
	case size > s.cfg.MaxPageSize:
		size = s.cfg.MaxPageSize
	}
	if size <= 0 {
		size = 20
	}
	return page, size
}

// searchTerm 外部搜索词：关键词（或分类名）+ 城市 + 州
func (s *QueryService) searchTerm(ctx context.Context, p model.QueryParams) (string, error) {
	term := strings.TrimSpace(p.Term)
	if term == "" && p.CategoryID != nil && s.categories != nil {
		c, err := s.categories.GetByID(ctx, *p.CategoryID)
		switch {
		case err == nil:
			term = c.Name
		case errors.Is(err, repository.ErrNotFound):
		default:
			return "", fmt.Errorf("查询分类失败: %w", err)
		}
	}
	if term == "" {
		return "", nil
	}
	parts := []string{term}
	if p.City != "" {
		parts = append(parts, p.City)
	}
	if p.Region != "" {
		parts = append(parts, strings.ToUpper(p.Region))
	}
	return strings.Join(parts, ", "), nil
}

// localResult 纯本地结果；enrich=true 时对前 enrich_limit 条做富化。
// 富化会改写评分、评价数和价位，之后重新按筛选条件过滤并排序。
func (s *QueryService) localResult(ctx context.Context, local []*model.Business, total int64, p model.QueryParams, sortOrder model.SortOrder, page, pageSize int, enrich bool) *model.QueryResult {
	items := make([]*model.BusinessView, 0, len(local))
	for _, b := range local {
		items = append(items, BusinessToView(b))
	}

	source := model.ProvenanceLocal
	if enrich && s.cfg.EnrichLocal && s.enrich != nil && s.provider != nil && s.cfg.EnrichLimit > 0 {
		if n := s.enrich.EnrichViews(ctx, items, s.cfg.EnrichLimit); n > 0 {
			source = model.ProvenanceHybrid
			kept := items[:0]
			for _, v := range items {
				if MatchesFilter(v, p) {
					kept = append(kept, v)
				}
			}
			total -= int64(len(items) - len(kept))
			items = kept
			SortViews(items, sortOrder)
		}
	}

	offset := (page - 1) * pageSize
	return &model.QueryResult{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasMore:  int64(offset+len(items)) < total,
		Source:   source,
	}
}

// freshExternals 过滤掉已落库的记录和不满足筛选条件的记录，保留外部数据源的顺序
func (s *QueryService) freshExternals(ctx context.Context, externals []*model.RawPlace, p model.QueryParams) ([]*model.BusinessView, error) {
	ids := make([]string, 0, len(externals))
	for _, e := range externals {
		if e.ExternalID != "" {
			ids = append(ids, e.ExternalID)
		}
	}
	stored, err := s.repo.ExistingExternalIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询已入库外部记录失败: %w", err)
	}

	seen := make(map[string]struct{}, len(externals))
	out := make([]*model.BusinessView, 0, len(externals))
	for _, e := range externals {
		if e.ExternalID == "" || e.Name == "" {
			continue
		}
		if _, ok := stored[e.ExternalID]; ok {
			continue
		}
		if _, ok := seen[e.ExternalID]; ok {
			continue
		}
		seen[e.ExternalID] = struct{}{}

		v := PlaceToView(e, p.CategoryID)
		if !MatchesFilter(v, p) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// MatchesFilter 与本地 SQL 相同的筛选条件（关键词、分类除外）；缺失字段视为不满足
func MatchesFilter(v *model.BusinessView, p model.QueryParams) bool {
	if r := strings.TrimSpace(p.Region); r != "" && !strings.EqualFold(v.State, r) {
		return false
	}
	if c := strings.TrimSpace(p.City); c != "" && !strings.EqualFold(v.City, c) {
		return false
	}
	if p.MinRating != nil {
		if !v.HasRating || v.Rating.LessThan(decimal.NewFromFloat(*p.MinRating)) {
			return false
		}
	}
	if p.PriceTier != nil {
		if v.PriceTier == nil || *v.PriceTier != *p.PriceTier {
			return false
		}
	}
	return true
}

func toFilter(p model.QueryParams) model.BusinessFilter {
	f := model.BusinessFilter{
		Term:       strings.TrimSpace(p.Term),
		CategoryID: p.CategoryID,
		Region:     strings.ToUpper(strings.TrimSpace(p.Region)),
		City:       strings.TrimSpace(p.City),
		PriceTier:  p.PriceTier,
	}
	if p.MinRating != nil {
		r := decimal.NewFromFloat(*p.MinRating)
		f.MinRating = &r
	}
	return f
}

func window(items []*model.BusinessView, offset, size int) []*model.BusinessView {
	if offset >= len(items) {
		return []*model.BusinessView{}
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// BusinessToView 本地记录转结果条目
func BusinessToView(b *model.Business) *model.BusinessView {
	created := b.CreatedAt
	v := &model.BusinessView{
		BusinessUUID: b.BusinessUUID,
		Slug:         b.Slug,
		Name:         b.Name,
		Address:      b.Address,
		City:         b.City,
		State:        b.State,
		PostalCode:   b.PostalCode,
		Latitude:     b.Latitude,
		Longitude:    b.Longitude,
		CategoryID:   b.CategoryID,
		PriceTier:    b.PriceTier,
		Rating:       b.Rating,
		HasRating:    b.RatingCount > 0 || !b.Rating.IsZero(),
		RatingCount:  b.RatingCount,
		Photos:       b.PhotoList(),
		Verified:     b.Verified,
		Featured:     b.Featured,
		CreatedAt:    &created,
		Provenance:   model.ProvenanceLocal,
	}
	if b.ExternalID != nil {
		v.ExternalID = *b.ExternalID
	}
	if v.Photos == nil {
		v.Photos = []string{}
	}
	return v
}

// PlaceToView 外部记录转结果条目（尚未入库，没有 slug）
func PlaceToView(p *model.RawPlace, categoryID *uint64) *model.BusinessView {
	comps := address.Parse(p.FormattedAddress)
	v := &model.BusinessView{
		ExternalID:  p.ExternalID,
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
		Photos:      model.MergePhotos(nil, p.PhotoRefs),
		Verified:    true,
		OpenNow:     p.OpenNow,
		Provenance:  model.ProvenanceExternal,
	}
	if p.Rating != nil {
		v.Rating = decimal.NewFromFloat(*p.Rating).Round(2)
		v.HasRating = true
	}
	v.Featured = model.ComputeFeatured(v.Rating, v.RatingCount)
	return v
}

// SortViews 合并后统一排序；每种排序最后按名称、再按 slug/external_id 收尾
func SortViews(items []*model.BusinessView, order model.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch order {
		case model.SortRating:
			if c := a.Rating.Cmp(b.Rating); c != 0 {
				return c > 0
			}
			if a.RatingCount != b.RatingCount {
				return a.RatingCount > b.RatingCount
			}
		case model.SortReviews:
			if a.RatingCount != b.RatingCount {
				return a.RatingCount > b.RatingCount
			}
			if c := a.Rating.Cmp(b.Rating); c != 0 {
				return c > 0
			}
		case model.SortNewest:
			// 未入库的外部条目排在已入库记录之后
			switch {
			case a.CreatedAt != nil && b.CreatedAt == nil:
				return true
			case a.CreatedAt == nil && b.CreatedAt != nil:
				return false
			case a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt):
				return a.CreatedAt.After(*b.CreatedAt)
			}
		case model.SortName:
		default:
			if a.Featured != b.Featured {
				return a.Featured
			}
			if c := a.Rating.Cmp(b.Rating); c != 0 {
				return c > 0
			}
			if a.RatingCount != b.RatingCount {
				return a.RatingCount > b.RatingCount
			}
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return viewKey(a) < viewKey(b)
	})
}

func viewKey(v *model.BusinessView) string {
	if v.Slug != "" {
		return v.Slug
	}
	return v.ExternalID
}
