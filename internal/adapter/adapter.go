package adapter

import (
	"fmt"

	"DirectorySync/internal/config"
	"DirectorySync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ProviderNone 关闭外部数据源，查询只走本地库
const ProviderNone = "none"

// NewProvider 按 provider.name 从注册表创建数据源实例。
// name 为 none 或空时返回 nil, nil。
func NewProvider(cfg *config.ProviderConfig, logger *logrus.Logger) (interfaces.PlaceProvider, error) {
	if cfg.Name == "" || cfg.Name == ProviderNone {
		logger.Info("未启用外部数据源，查询仅使用本地数据")
		return nil, nil
	}

	factory, ok := GetFactory(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("未找到数据源%s的工厂函数（已注册：%v）", cfg.Name, ListFactories())
	}

	provider := factory(cfg, logger)
	if provider == nil {
		return nil, fmt.Errorf("数据源%s的工厂函数返回nil", cfg.Name)
	}
	if provider.Name() != cfg.Name {
		return nil, fmt.Errorf("数据源名称不匹配: 配置=%s 实现=%s", cfg.Name, provider.Name())
	}

	logger.WithFields(logrus.Fields{
		"provider": cfg.Name,
		"base_url": cfg.BaseURL,
	}).Info("外部数据源初始化成功")
	return provider, nil
}
