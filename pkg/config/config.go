// Package config 定义引擎配置
// 保留天数、批次上限等策略全部显式传入各阶段，不依赖全局可变状态
package config

import "time"

// Config 引擎核心配置
type Config struct {
	Mode     string `yaml:"mode"`
	HTTPPort int    `yaml:"http_port"`
	Database struct {
		Type string `yaml:"type"`
		DSN  string `yaml:"dsn"`
	} `yaml:"database"`
	Engine struct {
		BatchLimit    int    `yaml:"batch_limit"`    // 各阶段处理行数上限
		RetentionDays int    `yaml:"retention_days"` // 全局保留天数（清理阶段兜底）
		PhaseTimeout  string `yaml:"phase_timeout"`  // 单阶段墙钟超时（Duration格式）
		CronExpr      string `yaml:"cron_expr"`      // serve模式的批处理调度表达式
		// 进入这些目标状态时自动入队通知
		NotifyStatuses []string `yaml:"notify_statuses"`
		// 失败通知是否在后续批次重试（默认false：等待人工处理）
		RetryFailedNotifications bool `yaml:"retry_failed_notifications"`
		// 升级后是否为新审批人入队通知（默认false：升级与通知相互独立）
		NotifyEscalated bool `yaml:"notify_escalated"`
	} `yaml:"engine"`
	Notifier struct {
		Type  string `yaml:"type"` // log/email
		Email struct {
			SMTPHost string `yaml:"smtp_host"`
			SMTPPort int    `yaml:"smtp_port"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			From     string `yaml:"from"`
		} `yaml:"email"`
	} `yaml:"notifier"`
}

// PhaseTimeout 解析单阶段超时（无效或未设置时返回默认值）
func (c *Config) PhaseTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.PhaseTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}
