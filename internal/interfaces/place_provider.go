package interfaces

import (
	"context"
	"errors"

	"DirectorySync/internal/config"
	"DirectorySync/internal/model"

	"github.com/sirupsen/logrus"
)

// ErrProviderUnavailable 外部数据源在重试后仍不可用（网络/解析失败）。
// 查询路径遇到它应降级为仅本地结果，而不是整体失败。
var ErrProviderUnavailable = errors.New("place provider unavailable")

// PlaceProvider 外部地点数据源必须实现的接口
type PlaceProvider interface {
	Name() string                                                                                  // 数据源名称
	Search(ctx context.Context, req model.SearchRequest) ([]*model.RawPlace, error)                // 逻辑查询（分页、限流、辖区过滤）
	FetchDetail(ctx context.Context, externalID string, fields []string) (*model.Enrichment, error) // 单个地点富化数据
}

// SyncDispatcher 后台入库任务投递（不阻塞调用方）
type SyncDispatcher interface {
	Enqueue(job model.SyncJob) bool
}

// Factory 数据源工厂函数（由各实现的 init 注册）
type Factory func(cfg *config.ProviderConfig, logger *logrus.Logger) PlaceProvider
