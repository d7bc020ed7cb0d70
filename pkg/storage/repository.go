// Package storage 定义工作流引擎的持久化边界
// Repository只负责数据访问，不包含任何业务策略
package storage

import (
	"context"
	"time"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

// WorkflowRepository 工作流定义存储接口（对外导出）
// 处理批次内工作流定义是只读的，Save方法仅供管理端与测试使用
type WorkflowRepository interface {
	// SaveWorkflow 保存工作流定义
	SaveWorkflow(ctx context.Context, wf *workflow.Workflow) error
	// GetWorkflow 根据ID查询工作流定义
	GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error)
	// ListWorkflows 列出所有工作流定义
	ListWorkflows(ctx context.Context) ([]*workflow.Workflow, error)
	// SaveStep 保存工作流步骤
	SaveStep(ctx context.Context, step *workflow.WorkflowStep) error
	// GetStep 根据ID查询工作流步骤
	GetStep(ctx context.Context, id string) (*workflow.WorkflowStep, error)
	// ListSteps 按Position顺序列出工作流的所有步骤
	ListSteps(ctx context.Context, workflowID string) ([]*workflow.WorkflowStep, error)
}

// TaskFilter 任务查询过滤条件
type TaskFilter struct {
	Statuses   []workflow.TaskStatus
	AssignedTo string
	WorkflowID string
	OverdueAt  *time.Time // 非nil时仅返回该时刻已超期的任务
	Limit      int
}

// OverdueTask 超期任务及其步骤的升级目标
type OverdueTask struct {
	Task             *workflow.WorkflowTask
	EscalationUserID string
}

// TransitionRecord 一次状态转换的完整写入内容
// 任务更新、历史追加与可选的通知入队在同一事务内提交
type TransitionRecord struct {
	TaskID        string
	From          workflow.TaskStatus
	To            workflow.TaskStatus
	NewAssignedTo *string    // 非nil时同时更新assigned_to（升级时使用）
	EscalatedAt   *time.Time // 进入escalated时设置
	DecidedAt     *time.Time // 进入终态时设置
	History       *workflow.WorkflowHistory
	Notification  *workflow.WorkflowNotification // 可选，目标状态需要通知时入队
}

// TaskRepository 工作流任务存储接口（对外导出）
type TaskRepository interface {
	// Create 创建任务，并在同一事务内追加created历史记录
	Create(ctx context.Context, task *workflow.WorkflowTask, history *workflow.WorkflowHistory) error
	// GetByID 根据ID查询任务
	GetByID(ctx context.Context, id string) (*workflow.WorkflowTask, error)
	// List 按过滤条件查询任务
	List(ctx context.Context, filter TaskFilter) ([]*workflow.WorkflowTask, error)
	// CountByStatus 按状态统计任务数量
	CountByStatus(ctx context.Context) (map[workflow.TaskStatus]int, error)
	// ListOverdue 查询升级候选任务（超期、非终态、非escalated、步骤有升级目标）
	// 按due_date升序、id升序排列，最多返回limit条
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*OverdueTask, error)
	// ApplyTransition 条件更新任务状态并写入历史（乐观锁）
	// 任务当前状态与record.From不一致时返回workflow.ErrConflict，不产生任何写入
	ApplyTransition(ctx context.Context, record *TransitionRecord) error
	// DeleteTerminalBefore 硬删除updated_at早于cutoff的终态任务
	// workflowID为空时作用于所有工作流；历史记录永不删除
	DeleteTerminalBefore(ctx context.Context, workflowID string, cutoff time.Time) (int64, error)
}

// HistoryRepository 工作流历史存储接口（对外导出）
// 只追加，不提供更新和删除
type HistoryRepository interface {
	// Append 追加历史记录
	Append(ctx context.Context, h *workflow.WorkflowHistory) error
	// ListByTask 按时间顺序查询任务的历史记录
	ListByTask(ctx context.Context, taskID string) ([]*workflow.WorkflowHistory, error)
	// CountByTask 统计任务的历史记录数量
	CountByTask(ctx context.Context, taskID string) (int, error)
}

// NotificationRepository 工作流通知存储接口（对外导出）
type NotificationRepository interface {
	// Enqueue 通知入队
	Enqueue(ctx context.Context, n *workflow.WorkflowNotification) error
	// GetByID 根据ID查询通知
	GetByID(ctx context.Context, id string) (*workflow.WorkflowNotification, error)
	// ListDeliverable 查询待投递通知（includeFailed时失败的通知参与重试）
	// 按created_at升序、id升序排列，最多返回limit条
	ListDeliverable(ctx context.Context, limit int, includeFailed bool) ([]*workflow.WorkflowNotification, error)
	// MarkSent 标记通知发送成功
	MarkSent(ctx context.Context, id string) error
	// MarkFailed 标记通知发送失败并记录原因
	MarkFailed(ctx context.Context, id string, reason string) error
}
