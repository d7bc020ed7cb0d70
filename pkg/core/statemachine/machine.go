// Package statemachine 实现任务状态机
// 所有任务状态变更都经由本包写入，保证每次转换恰好产生一条历史记录
package statemachine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/LENAX/workflow-engine/pkg/core/events"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage"
)

// Machine 任务状态机（对外导出）
type Machine struct {
	tasks storage.TaskRepository
	bus   *events.Bus // 可选，nil时不发布事件

	// 进入这些目标状态时自动入队通知
	notifyStatuses map[workflow.TaskStatus]bool
}

// New 创建任务状态机
// notifyStatuses: 需要通知相关方的目标状态集合（来自配置）
func New(tasks storage.TaskRepository, bus *events.Bus, notifyStatuses []workflow.TaskStatus) *Machine {
	notify := make(map[workflow.TaskStatus]bool, len(notifyStatuses))
	for _, s := range notifyStatuses {
		notify[s] = true
	}
	return &Machine{
		tasks:          tasks,
		bus:            bus,
		notifyStatuses: notify,
	}
}

// Transition 执行一次任务状态转换
// 非法转换返回workflow.ErrIllegalTransition；写入时状态已被并发修改返回workflow.ErrConflict
// 成功时任务更新、历史追加与可选的通知入队在同一事务内提交
func (m *Machine) Transition(ctx context.Context, taskID string, to workflow.TaskStatus, actor workflow.Actor, comment string) (*workflow.WorkflowTask, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: 未知状态 %q", workflow.ErrValidation, to)
	}
	if actor.Kind == workflow.ActorKindHuman && actor.UserID == "" {
		return nil, fmt.Errorf("%w: 人工操作者缺少用户ID", workflow.ErrValidation)
	}

	task, err := m.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, workflow.ErrTaskNotFound
	}
	if !task.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", workflow.ErrIllegalTransition, task.Status, to)
	}

	now := time.Now()
	record := &storage.TransitionRecord{
		TaskID: task.ID,
		From:   task.Status,
		To:     to,
		History: &workflow.WorkflowHistory{
			ID:          uuid.New().String(),
			TaskID:      task.ID,
			WorkflowID:  task.WorkflowID,
			StepID:      task.StepID,
			Entity:      task.Entity,
			Action:      workflow.ActionTransition,
			FromStatus:  task.Status,
			ToStatus:    to,
			PerformedBy: actor,
			Comment:     comment,
			CreatedAt:   now,
		},
	}
	if to.IsTerminal() {
		record.DecidedAt = &now
	}
	if m.notifyStatuses[to] {
		record.Notification = workflow.NewNotification(task.ID, task.AssignedTo, "task_"+string(to))
	}

	if err := m.tasks.ApplyTransition(ctx, record); err != nil {
		return nil, err
	}

	from := task.Status
	task.Status = to
	task.UpdatedAt = now
	if record.DecidedAt != nil {
		task.DecidedAt = record.DecidedAt
	}

	m.publishTransition(task, from, actor, now)
	return task, nil
}

// CreateTask 为进入步骤的实体创建首个任务（外部触发器调用）
// 到期日按步骤的偏移天数计算，同时写入created历史记录
func (m *Machine) CreateTask(ctx context.Context, wf *workflow.Workflow, step *workflow.WorkflowStep, entity workflow.EntityRef, assignee string, priority int) (*workflow.WorkflowTask, error) {
	if wf == nil || step == nil {
		return nil, fmt.Errorf("%w: 工作流或步骤为空", workflow.ErrValidation)
	}
	if step.WorkflowID != wf.ID {
		return nil, fmt.Errorf("%w: 步骤 %s 不属于工作流 %s", workflow.ErrValidation, step.ID, wf.ID)
	}
	if entity.IsZero() {
		return nil, fmt.Errorf("%w: 实体引用为空", workflow.ErrValidation)
	}

	task := workflow.NewTask(wf, step, entity, assignee, priority)
	history := &workflow.WorkflowHistory{
		ID:          uuid.New().String(),
		TaskID:      task.ID,
		WorkflowID:  task.WorkflowID,
		StepID:      task.StepID,
		Entity:      task.Entity,
		Action:      workflow.ActionCreated,
		FromStatus:  "",
		ToStatus:    task.Status,
		PerformedBy: workflow.SystemActor,
		CreatedAt:   task.CreatedAt,
	}
	if err := m.tasks.Create(ctx, task, history); err != nil {
		return nil, err
	}
	return task, nil
}

// publishTransition 发布转换事件（尽力而为，失败仅记录日志）
func (m *Machine) publishTransition(task *workflow.WorkflowTask, from workflow.TaskStatus, actor workflow.Actor, occurredAt time.Time) {
	if m.bus == nil {
		return
	}
	err := m.bus.PublishTaskTransitioned(&events.TaskTransitionedEvent{
		TaskID:     task.ID,
		WorkflowID: task.WorkflowID,
		Entity:     task.Entity,
		FromStatus: from,
		ToStatus:   task.Status,
		Actor:      actor.String(),
		OccurredAt: occurredAt,
	})
	if err != nil {
		log.Printf("⚠️ [状态机] 发布转换事件失败: TaskID=%s, Error=%v", task.ID, err)
	}
}
