package plugin

import (
	"fmt"

	"github.com/LENAX/workflow-engine/pkg/config"
	"github.com/LENAX/workflow-engine/pkg/core/notification"
)

// NewNotifierFromConfig 根据配置创建通知器
func NewNotifierFromConfig(cfg *config.Config) (notification.Notifier, error) {
	switch cfg.Notifier.Type {
	case "", "log":
		return NewLogNotifier(), nil
	case "email":
		return NewEmailNotifier(EmailConfig{
			SMTPHost: cfg.Notifier.Email.SMTPHost,
			SMTPPort: cfg.Notifier.Email.SMTPPort,
			Username: cfg.Notifier.Email.Username,
			Password: cfg.Notifier.Email.Password,
			From:     cfg.Notifier.Email.From,
		})
	default:
		return nil, fmt.Errorf("不支持的通知器类型: %s", cfg.Notifier.Type)
	}
}
