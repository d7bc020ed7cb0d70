// Package plugin 提供Notifier能力的内置实现
package plugin

import (
	"context"
	"log"

	"github.com/LENAX/workflow-engine/pkg/core/notification"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

// LogNotifier 日志通知器（对外导出）
// 仅把通知写入日志，开发与测试环境使用
type LogNotifier struct{}

// NewLogNotifier 创建日志通知器
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Name 投递器名称（实现Notifier接口）
func (l *LogNotifier) Name() string {
	return "log"
}

// Send 投递通知（实现Notifier接口）
func (l *LogNotifier) Send(ctx context.Context, n *workflow.WorkflowNotification) error {
	log.Printf("📧 [LogNotifier] 投递通知: ID=%s, TaskID=%s, Target=%s, Template=%s",
		n.ID, n.TaskID, n.Target, n.TemplateRef)
	return nil
}

// 确保实现接口
var _ notification.Notifier = (*LogNotifier)(nil)
