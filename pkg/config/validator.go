package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

// Validate 校验配置
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("配置为空")
	}

	switch cfg.Database.Type {
	case "sqlite", "mysql", "postgres", "postgresql":
	default:
		return fmt.Errorf("不支持的数据库类型: %s", cfg.Database.Type)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("数据库DSN不能为空")
	}

	if cfg.Engine.BatchLimit <= 0 {
		return fmt.Errorf("batch_limit必须大于0")
	}
	if cfg.Engine.RetentionDays < 0 {
		return fmt.Errorf("retention_days不能为负数")
	}
	if cfg.Engine.PhaseTimeout != "" {
		if _, err := time.ParseDuration(cfg.Engine.PhaseTimeout); err != nil {
			return fmt.Errorf("phase_timeout格式错误: %w", err)
		}
	}
	if cfg.Engine.CronExpr != "" {
		if _, err := cron.ParseStandard(cfg.Engine.CronExpr); err != nil {
			return fmt.Errorf("cron_expr无效: %w", err)
		}
	}
	for _, s := range cfg.Engine.NotifyStatuses {
		if !workflow.TaskStatus(s).IsValid() {
			return fmt.Errorf("notify_statuses包含未知状态: %s", s)
		}
	}

	switch cfg.Notifier.Type {
	case "log":
	case "email":
		if cfg.Notifier.Email.SMTPHost == "" {
			return fmt.Errorf("email通知器缺少smtp_host")
		}
		if cfg.Notifier.Email.From == "" {
			return fmt.Errorf("email通知器缺少from")
		}
	default:
		return fmt.Errorf("不支持的通知器类型: %s", cfg.Notifier.Type)
	}

	return nil
}

// NotifyStatuses 配置的通知状态集合转为领域类型
func (c *Config) NotifyStatuses() []workflow.TaskStatus {
	statuses := make([]workflow.TaskStatus, 0, len(c.Engine.NotifyStatuses))
	for _, s := range c.Engine.NotifyStatuses {
		statuses = append(statuses, workflow.TaskStatus(s))
	}
	return statuses
}
