// Package events 提供引擎内部的事件总线
// 状态机与批处理编排器发布事件，serve模式订阅并记录
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

// 事件主题常量
const (
	// TopicTaskTransitioned 任务状态转换事件
	TopicTaskTransitioned = "workflow.task.transitioned"
	// TopicBatchCompleted 批处理运行完成事件
	TopicBatchCompleted = "workflow.batch.completed"
)

// TaskTransitionedEvent 任务状态转换事件载荷
type TaskTransitionedEvent struct {
	TaskID     string              `json:"task_id"`
	WorkflowID string              `json:"workflow_id"`
	Entity     workflow.EntityRef  `json:"entity"`
	FromStatus workflow.TaskStatus `json:"from_status"`
	ToStatus   workflow.TaskStatus `json:"to_status"`
	Actor      string              `json:"actor"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// BatchCompletedEvent 批处理运行完成事件载荷
type BatchCompletedEvent struct {
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Escalated  int       `json:"escalated"`
	Skipped    int       `json:"skipped"`
	Archived   int       `json:"archived"`
	ErrorCount int       `json:"error_count"`
	FinishedAt time.Time `json:"finished_at"`
}

// Bus 进程内事件总线（对外导出）
// 基于watermill gochannel，发布端非阻塞，未订阅的主题事件被丢弃
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, watermill.NewStdLogger(false, false)),
	}
}

// publish 序列化并发布事件（内部方法）
func (b *Bus) publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// PublishTaskTransitioned 发布任务状态转换事件
func (b *Bus) PublishTaskTransitioned(event *TaskTransitionedEvent) error {
	return b.publish(TopicTaskTransitioned, event)
}

// PublishBatchCompleted 发布批处理完成事件
func (b *Bus) PublishBatchCompleted(event *BatchCompletedEvent) error {
	return b.publish(TopicBatchCompleted, event)
}

// Subscribe 订阅指定主题
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("订阅主题失败: %w", err)
	}
	return messages, nil
}

// Close 关闭事件总线
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
