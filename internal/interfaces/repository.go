package interfaces

import (
	"context"

	"DirectorySync/internal/model"
)

// BusinessRepository 本地商家存储。
// 实现方必须保证 external_id（非空时）与 slug 的唯一性。
type BusinessRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*model.Business, error) // 不存在返回 nil, nil
	FindBySlug(ctx context.Context, slug string) (*model.Business, error)             // 不存在返回 nil, nil
	SlugExists(ctx context.Context, slug string) (bool, error)
	// ExistingExternalIDs 返回 ids 中已落库的那部分
	ExistingExternalIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	// Insert 唯一约束冲突时返回 ConstraintViolation，而不是 error
	Insert(ctx context.Context, b *model.Business) (*model.ConstraintViolation, error)
	Query(ctx context.Context, filter model.BusinessFilter, sort model.SortOrder, page model.PageWindow) ([]*model.Business, int64, error)
}

// CategoryRepository 分类存储
type CategoryRepository interface {
	Ensure(ctx context.Context, name string) (*model.Category, error)
	GetByID(ctx context.Context, id uint64) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
}
