package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"
	"DirectorySync/internal/utils/slug"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) interfaces.CategoryRepository {
	return &categoryRepository{db: db}
}

// Ensure 按 slug 幂等创建分类，已存在时返回已有记录
func (r *categoryRepository) Ensure(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("分类名称不能为空")
	}
	c := &model.Category{Slug: slug.Normalize(name), Name: name}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(c).Error; err != nil {
		return nil, fmt.Errorf("保存分类失败: %w", err)
	}
	return r.GetBySlug(ctx, c.Slug)
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint64) (*model.Category, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *categoryRepository) GetBySlug(ctx context.Context, s string) (*model.Category, error) {
	return r.take(ctx, "slug = ?", s)
}

func (r *categoryRepository) take(ctx context.Context, cond string, arg interface{}) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Where(cond, arg).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*model.Category, error) {
	var list []*model.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
