package service

import (
	"context"
	"errors"
	"fmt"

	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/utils/slug"
)

// ErrSlugExhausted base、base-1 … base-N 全部被占用
var ErrSlugExhausted = errors.New("slug candidates exhausted")

const defaultMaxSlugProbes = 10000

// SlugAssigner 为新记录分配唯一、不可变的 slug
type SlugAssigner struct {
	repo      interfaces.BusinessRepository
	maxProbes int
}

func NewSlugAssigner(repo interfaces.BusinessRepository) *SlugAssigner {
	return &SlugAssigner{repo: repo, maxProbes: defaultMaxSlugProbes}
}

// AssignSlug 依次探测 base、base-1、base-2…，返回第一个未被占用的候选。
// 仅做探测，不做预留：并发写入者的冲突由存储的唯一约束兜底。
func (a *SlugAssigner) AssignSlug(ctx context.Context, name string) (string, error) {
	s, _, err := a.assignFrom(ctx, slug.Normalize(name), 0)
	return s, err
}

// assignFrom 从后缀 start 开始探测（start=0 表示先试 base 本身），返回候选及其后缀。
// 写入时撞上唯一约束的调用方从 suffix+1 继续，不必重新从 base 探测。
func (a *SlugAssigner) assignFrom(ctx context.Context, base string, start int) (string, int, error) {
	for i := start; i <= a.maxProbes; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		exists, err := a.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", 0, fmt.Errorf("检查 slug %s 失败: %w", candidate, err)
		}
		if !exists {
			return candidate, i, nil
		}
	}
	return "", 0, fmt.Errorf("%w: %s", ErrSlugExhausted, base)
}
