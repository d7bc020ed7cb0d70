// Package notification 实现通知队列的投递
package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage"
)

// Notifier 通知投递能力接口（对外导出）
// 具体实现（邮件、Webhook等）由外部注入，见pkg/plugin
type Notifier interface {
	// Name 投递器名称
	Name() string
	// Send 投递一条通知
	Send(ctx context.Context, n *workflow.WorkflowNotification) error
}

// Report 投递批次结果（对外导出）
type Report struct {
	Sent   int `json:"sent"`   // 投递成功数量
	Failed int `json:"failed"` // 投递失败数量
}

// Options 投递器选项
type Options struct {
	// RetryFailed 失败的通知是否在后续批次重新投递
	// 默认关闭：失败通知保留failed状态等待人工处理
	RetryFailed bool
}

// Dispatcher 通知投递器（对外导出）
// 只改写通知行自身的状态，从不触碰任务行
type Dispatcher struct {
	notifications storage.NotificationRepository
	notifier      Notifier
	opts          Options
}

// NewDispatcher 创建通知投递器
func NewDispatcher(notifications storage.NotificationRepository, notifier Notifier, opts Options) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		notifier:      notifier,
		opts:          opts,
	}
}

// ProcessPending 投递一批待发送通知
// 每条被选中的通知都会进入sent或failed之一，不会停留在pending
// 投递失败记录原因但不中断批次；持久化错误中断批次
func (d *Dispatcher) ProcessPending(ctx context.Context, limit int) (*Report, error) {
	report := &Report{}

	pending, err := d.notifications.ListDeliverable(ctx, limit, d.opts.RetryFailed)
	if err != nil {
		return report, fmt.Errorf("查询待投递通知失败: %w", err)
	}

	for _, n := range pending {
		if err := d.notifier.Send(ctx, n); err != nil {
			log.Printf("⚠️ [通知投递] 投递失败: NotificationID=%s, Target=%s, Error=%v", n.ID, n.Target, err)
			if markErr := d.notifications.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				return report, markErr
			}
			report.Failed++
			continue
		}
		if err := d.notifications.MarkSent(ctx, n.ID); err != nil {
			return report, err
		}
		report.Sent++
	}

	return report, nil
}
