package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Default 默认配置
func Default() *Config {
	cfg := &Config{
		Mode:     "dev",
		HTTPPort: 8080,
	}
	cfg.Database.Type = "sqlite"
	cfg.Database.DSN = "./workflow.db"
	cfg.Engine.BatchLimit = 100
	cfg.Engine.RetentionDays = 90
	cfg.Engine.PhaseTimeout = "2m"
	cfg.Engine.CronExpr = "*/10 * * * *"
	cfg.Engine.NotifyStatuses = []string{"approved", "rejected"}
	cfg.Notifier.Type = "log"
	return cfg
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		// 若文件不存在，返回默认配置
		return Default(), nil
	}

	// 解析YAML（在默认值之上覆盖）
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
