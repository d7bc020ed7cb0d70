package config

import (
	"testing"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		nilCfg  bool
		wantErr bool
	}{
		{
			name:    "默认配置有效",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name:    "空配置",
			nilCfg:  true,
			wantErr: true,
		},
		{
			name: "无效的数据库类型",
			mutate: func(cfg *Config) {
				cfg.Database.Type = "oracle"
			},
			wantErr: true,
		},
		{
			name: "DSN为空",
			mutate: func(cfg *Config) {
				cfg.Database.DSN = ""
			},
			wantErr: true,
		},
		{
			name: "batch_limit为0",
			mutate: func(cfg *Config) {
				cfg.Engine.BatchLimit = 0
			},
			wantErr: true,
		},
		{
			name: "retention_days为负数",
			mutate: func(cfg *Config) {
				cfg.Engine.RetentionDays = -1
			},
			wantErr: true,
		},
		{
			name: "phase_timeout格式错误",
			mutate: func(cfg *Config) {
				cfg.Engine.PhaseTimeout = "five minutes"
			},
			wantErr: true,
		},
		{
			name: "cron表达式无效",
			mutate: func(cfg *Config) {
				cfg.Engine.CronExpr = "every 10 minutes"
			},
			wantErr: true,
		},
		{
			name: "notify_statuses包含未知状态",
			mutate: func(cfg *Config) {
				cfg.Engine.NotifyStatuses = []string{"approved", "done"}
			},
			wantErr: true,
		},
		{
			name: "notify_statuses包含escalated有效",
			mutate: func(cfg *Config) {
				cfg.Engine.NotifyStatuses = []string{"approved", "rejected", "escalated"}
			},
			wantErr: false,
		},
		{
			name: "无效的通知器类型",
			mutate: func(cfg *Config) {
				cfg.Notifier.Type = "carrier-pigeon"
			},
			wantErr: true,
		},
		{
			name: "email通知器缺少smtp_host",
			mutate: func(cfg *Config) {
				cfg.Notifier.Type = "email"
				cfg.Notifier.Email.From = "workflow@example.com"
			},
			wantErr: true,
		},
		{
			name: "email通知器配置完整",
			mutate: func(cfg *Config) {
				cfg.Notifier.Type = "email"
				cfg.Notifier.Email.SMTPHost = "smtp.example.com"
				cfg.Notifier.Email.From = "workflow@example.com"
			},
			wantErr: false,
		},
		{
			name: "postgres数据库类型有效",
			mutate: func(cfg *Config) {
				cfg.Database.Type = "postgres"
				cfg.Database.DSN = "postgres://localhost/workflow"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *Config
			if !tt.nilCfg {
				cfg = Default()
				tt.mutate(cfg)
			}
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotifyStatuses(t *testing.T) {
	cfg := Default()
	statuses := cfg.NotifyStatuses()
	if len(statuses) != 2 {
		t.Fatalf("期望默认通知状态有2个，实际为%d", len(statuses))
	}
	if statuses[0] != workflow.StatusApproved || statuses[1] != workflow.StatusRejected {
		t.Errorf("期望默认通知approved和rejected，实际为%v", statuses)
	}
}
