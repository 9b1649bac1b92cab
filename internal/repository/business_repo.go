package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) interfaces.BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Business, error) {
	if externalID == "" {
		return nil, nil
	}
	return r.findOne(ctx, "external_id = ?", externalID)
}

func (r *businessRepository) FindBySlug(ctx context.Context, slug string) (*model.Business, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

func (r *businessRepository) findOne(ctx context.Context, cond string, arg interface{}) (*model.Business, error) {
	var b model.Business
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *businessRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Business{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *businessRepository) ExistingExternalIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var rows []string
	if err := r.db.WithContext(ctx).Model(&model.Business{}).
		Where("external_id IN ?", ids).
		Pluck("external_id", &rows).Error; err != nil {
		return nil, fmt.Errorf("批量查询 external_id 失败: %w", err)
	}
	for _, id := range rows {
		found[id] = struct{}{}
	}
	return found, nil
}

// Insert 唯一约束冲突时返回冲突列；external_id 已存在优先判定为 external_id 冲突
func (r *businessRepository) Insert(ctx context.Context, b *model.Business) (*model.ConstraintViolation, error) {
	if b.BusinessUUID == "" {
		b.BusinessUUID = uuid.NewString()
	}
	if len(b.Photos) == 0 {
		b.SetPhotos(nil)
	}

	err := r.db.WithContext(ctx).Create(b).Error
	if err == nil {
		return nil, nil
	}
	if !isUniqueViolation(err) {
		return nil, fmt.Errorf("保存商家失败: %w, name: %s", err, b.Name)
	}

	b.ID = 0
	if b.ExternalID != nil {
		existing, ferr := r.FindByExternalID(ctx, *b.ExternalID)
		if ferr != nil {
			return nil, fmt.Errorf("唯一约束冲突后查询 external_id 失败: %w", ferr)
		}
		if existing != nil {
			return &model.ConstraintViolation{Column: model.ColumnExternalID}, nil
		}
	}
	return &model.ConstraintViolation{Column: model.ColumnSlug}, nil
}

func (r *businessRepository) Query(ctx context.Context, filter model.BusinessFilter, sort model.SortOrder, page model.PageWindow) ([]*model.Business, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Business{})
	if term := strings.TrimSpace(filter.Term); term != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	if filter.CategoryID != nil {
		db = db.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Region != "" {
		db = db.Where("state = ?", strings.ToUpper(filter.Region))
	}
	if filter.City != "" {
		db = db.Where("LOWER(city) = ?", strings.ToLower(filter.City))
	}
	if filter.MinRating != nil {
		// 没有评分（0 分且 0 条评价）的记录视为缺失，不满足最低评分
		db = db.Where("rating >= ? AND (rating_count > 0 OR rating <> 0)", *filter.MinRating)
	}
	if filter.PriceTier != nil {
		db = db.Where("price_tier = ?", *filter.PriceTier)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计商家数量失败: %w", err)
	}

	var list []*model.Business
	q := db.Order(orderClause(sort))
	if page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("查询商家列表失败: %w", err)
	}
	return list, total, nil
}

// orderClause 每种排序最后都以 name、slug 收尾，保证分页稳定
func orderClause(sort model.SortOrder) string {
	switch sort {
	case model.SortRating:
		return "rating DESC, rating_count DESC, name ASC, slug ASC"
	case model.SortReviews:
		return "rating_count DESC, rating DESC, name ASC, slug ASC"
	case model.SortName:
		return "name ASC, slug ASC"
	case model.SortNewest:
		return "created_at DESC, name ASC, slug ASC"
	default:
		return "featured DESC, rating DESC, rating_count DESC, name ASC, slug ASC"
	}
}
