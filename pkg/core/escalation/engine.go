// Package escalation 实现超期任务的自动升级
package escalation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage"
)

// Report 升级批次结果（对外导出）
type Report struct {
	Escalated int `json:"escalated"` // 成功升级数量
	Skipped   int `json:"skipped"`   // 跳过数量（并发冲突等）
}

// Options 升级引擎选项
type Options struct {
	// NotifyEscalated 升级后是否为新审批人入队通知
	// 升级与通知本是独立阶段，这里作为显式的设计选项提供，默认关闭
	NotifyEscalated bool
}

// Engine 升级引擎（对外导出）
// 选择条件自限：已升级的任务不会被再次选中，批次可安全重跑
type Engine struct {
	tasks storage.TaskRepository
	opts  Options
}

// NewEngine 创建升级引擎
func NewEngine(tasks storage.TaskRepository, opts Options) *Engine {
	return &Engine{tasks: tasks, opts: opts}
}

// EscalateOverdue 升级一批超期任务
// 按due_date升序、id升序选择最多limit条，逐条条件更新
// 单条任务的并发冲突计入Skipped，不中断批次；持久化错误中断批次
func (e *Engine) EscalateOverdue(ctx context.Context, limit int) (*Report, error) {
	report := &Report{}

	overdue, err := e.tasks.ListOverdue(ctx, time.Now(), limit)
	if err != nil {
		return report, fmt.Errorf("查询超期任务失败: %w", err)
	}

	for _, candidate := range overdue {
		if err := e.escalate(ctx, candidate); err != nil {
			if errors.Is(err, workflow.ErrConflict) || errors.Is(err, workflow.ErrTaskNotFound) {
				// 批次运行期间操作员已通过UI转换了该任务，跳过
				report.Skipped++
				log.Printf("⚠️ [升级引擎] 跳过任务: TaskID=%s, Reason=%v", candidate.Task.ID, err)
				continue
			}
			return report, err
		}
		report.Escalated++
	}

	return report, nil
}

// escalate 升级单个任务（内部方法）
// 状态置为escalated，assigned_to改为步骤的升级目标，同一事务写入历史
func (e *Engine) escalate(ctx context.Context, candidate *storage.OverdueTask) error {
	task := candidate.Task
	now := time.Now()
	newAssignee := candidate.EscalationUserID

	record := &storage.TransitionRecord{
		TaskID:        task.ID,
		From:          task.Status,
		To:            workflow.StatusEscalated,
		NewAssignedTo: &newAssignee,
		EscalatedAt:   &now,
		History: &workflow.WorkflowHistory{
			ID:          uuid.New().String(),
			TaskID:      task.ID,
			WorkflowID:  task.WorkflowID,
			StepID:      task.StepID,
			Entity:      task.Entity,
			Action:      workflow.ActionEscalated,
			FromStatus:  task.Status,
			ToStatus:    workflow.StatusEscalated,
			PerformedBy: workflow.SystemActor,
			Comment:     workflow.EscalationComment,
			CreatedAt:   now,
		},
	}
	if e.opts.NotifyEscalated {
		record.Notification = workflow.NewNotification(task.ID, newAssignee, "task_escalated")
	}

	return e.tasks.ApplyTransition(ctx, record)
}
