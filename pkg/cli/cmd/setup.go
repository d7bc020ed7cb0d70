package cmd

import (
	"fmt"
	"os"

	istorage "github.com/LENAX/workflow-engine/internal/storage"
	"github.com/LENAX/workflow-engine/pkg/config"
	"github.com/LENAX/workflow-engine/pkg/core/engine"
	"github.com/LENAX/workflow-engine/pkg/core/events"
	"github.com/LENAX/workflow-engine/pkg/plugin"
)

// loadConfig 加载并校验配置（内部方法）
// 未指定--config时依次尝试默认路径，都不存在时使用内置默认配置
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		defaultPaths := []string{
			"./configs/workflow.yaml",
			"./config/workflow.yaml",
			"./workflow.yaml",
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return cfg, nil
}

// buildEngine 按配置装配批处理引擎（内部方法）
// 返回的cleanup函数负责关闭数据库连接与事件总线
func buildEngine(cfg *config.Config, bus *events.Bus) (*engine.Engine, func(), error) {
	repos, err := istorage.Open(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("打开存储失败: %w", err)
	}

	notifier, err := plugin.NewNotifierFromConfig(cfg)
	if err != nil {
		repos.Close()
		return nil, nil, err
	}

	eng := engine.New(engine.Dependencies{
		Repos:           repos,
		Bus:             bus,
		Notifier:        notifier,
		NotifyStatuses:  cfg.NotifyStatuses(),
		RetryFailed:     cfg.Engine.RetryFailedNotifications,
		NotifyEscalated: cfg.Engine.NotifyEscalated,
		PhaseTimeout:    cfg.PhaseTimeout(),
		DefaultLimit:    cfg.Engine.BatchLimit,
		DefaultDays:     cfg.Engine.RetentionDays,
	})

	cleanup := func() {
		repos.Close()
		if bus != nil {
			bus.Close()
		}
	}
	return eng, cleanup, nil
}
