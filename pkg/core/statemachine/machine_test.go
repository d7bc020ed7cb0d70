package statemachine_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	istorage "github.com/LENAX/workflow-engine/internal/storage"
	"github.com/LENAX/workflow-engine/pkg/core/statemachine"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage"
)

// setupMachineTest 创建测试数据库与状态机
func setupMachineTest(t *testing.T, notifyStatuses []workflow.TaskStatus) (*statemachine.Machine, *istorage.Repositories) {
	dbFile := filepath.Join(t.TempDir(), "test_machine.db")
	repos, err := istorage.Open("sqlite", dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	return statemachine.New(repos.Tasks, nil, notifyStatuses), repos
}

// seedTask 创建测试工作流、步骤和任务
func seedTask(t *testing.T, m *statemachine.Machine, repos *istorage.Repositories) *workflow.WorkflowTask {
	ctx := context.Background()

	wf := &workflow.Workflow{ID: "wf-1", Name: "发布审批", ScopeType: "information_object", Active: true}
	require.NoError(t, repos.Workflows.SaveWorkflow(ctx, wf))

	step := &workflow.WorkflowStep{
		ID:             "step-1",
		WorkflowID:     "wf-1",
		Position:       1,
		AssignmentRule: workflow.AssignUser,
		Assignee:       "user-1",
		DueOffsetDays:  3,
	}
	require.NoError(t, repos.Workflows.SaveStep(ctx, step))

	entity := workflow.EntityRef{ObjectType: "information_object", ObjectID: "obj-1"}
	task, err := m.CreateTask(ctx, wf, step, entity, "user-1", 0)
	require.NoError(t, err)
	return task
}

// TestMachine_Transition 测试合法转换链
func TestMachine_Transition(t *testing.T) {
	m, repos := setupMachineTest(t, nil)
	task := seedTask(t, m, repos)
	ctx := context.Background()

	// pending -> claimed -> in_progress -> approved
	updated, err := m.Transition(ctx, task.ID, workflow.StatusClaimed, workflow.HumanActor("user-1"), "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusClaimed, updated.Status)

	updated, err = m.Transition(ctx, task.ID, workflow.StatusInProgress, workflow.HumanActor("user-1"), "")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, updated.Status)

	updated, err = m.Transition(ctx, task.ID, workflow.StatusApproved, workflow.HumanActor("user-1"), "同意发布")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, updated.Status)
	assert.NotNil(t, updated.DecidedAt)

	// 每次转换恰好一条历史 + 创建时一条
	count, err := repos.History.CountByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// 历史按时间顺序记录转换内容
	history, err := repos.History.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, workflow.ActionCreated, history[0].Action)
	assert.Equal(t, workflow.ActionTransition, history[1].Action)
	assert.Equal(t, workflow.StatusPending, history[1].FromStatus)
	assert.Equal(t, workflow.StatusClaimed, history[1].ToStatus)
	assert.Equal(t, "user-1", history[1].PerformedBy.UserID)
	assert.Equal(t, "同意发布", history[3].Comment)
}

// TestMachine_IllegalTransition 测试非法转换不产生任何写入
func TestMachine_IllegalTransition(t *testing.T) {
	m, repos := setupMachineTest(t, nil)
	task := seedTask(t, m, repos)
	ctx := context.Background()

	// pending不能直接批准
	_, err := m.Transition(ctx, task.ID, workflow.StatusApproved, workflow.HumanActor("user-1"), "")
	assert.ErrorIs(t, err, workflow.ErrIllegalTransition)

	// 任务未被修改
	stored, err := repos.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, stored.Status)

	// 没有新增历史（仅created一条）
	count, err := repos.History.CountByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// TestMachine_TerminalTaskRejectsTransition 测试终态任务拒绝所有转换
func TestMachine_TerminalTaskRejectsTransition(t *testing.T) {
	m, repos := setupMachineTest(t, nil)
	task := seedTask(t, m, repos)
	ctx := context.Background()

	_, err := m.Transition(ctx, task.ID, workflow.StatusCancelled, workflow.HumanActor("user-1"), "")
	require.NoError(t, err)

	for _, target := range workflow.AllStatuses {
		_, err := m.Transition(ctx, task.ID, target, workflow.HumanActor("user-1"), "")
		assert.ErrorIs(t, err, workflow.ErrIllegalTransition, "终态不应允许转换到%s", target)
	}
}

// TestMachine_ValidationErrors 测试入参校验
func TestMachine_ValidationErrors(t *testing.T) {
	m, repos := setupMachineTest(t, nil)
	task := seedTask(t, m, repos)
	ctx := context.Background()

	// 未知目标状态
	_, err := m.Transition(ctx, task.ID, workflow.TaskStatus("unknown"), workflow.HumanActor("user-1"), "")
	assert.ErrorIs(t, err, workflow.ErrValidation)

	// 人工操作者缺少用户ID
	_, err = m.Transition(ctx, task.ID, workflow.StatusClaimed, workflow.Actor{Kind: workflow.ActorKindHuman}, "")
	assert.ErrorIs(t, err, workflow.ErrValidation)

	// 任务不存在
	_, err = m.Transition(ctx, "no-such-task", workflow.StatusClaimed, workflow.HumanActor("user-1"), "")
	assert.ErrorIs(t, err, workflow.ErrTaskNotFound)
}

// TestMachine_ConcurrentConflict 测试乐观锁冲突
func TestMachine_ConcurrentConflict(t *testing.T) {
	m, repos := setupMachineTest(t, nil)
	task := seedTask(t, m, repos)
	ctx := context.Background()

	// 模拟批次与UI并发：先绕过状态机直接改写任务状态
	record := &storage.TransitionRecord{
		TaskID: task.ID,
		From:   workflow.StatusPending,
		To:     workflow.StatusCancelled,
	}
	require.NoError(t, repos.Tasks.ApplyTransition(ctx, record))

	// 状态机持有的是旧快照，写入时条件更新失败
	_, err := repos.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	err = repos.Tasks.ApplyTransition(ctx, &storage.TransitionRecord{
		TaskID: task.ID,
		From:   workflow.StatusPending,
		To:     workflow.StatusClaimed,
	})
	assert.ErrorIs(t, err, workflow.ErrConflict)
}

// TestMachine_NotificationEnqueuedOnDecision 测试终态转换入队通知
func TestMachine_NotificationEnqueuedOnDecision(t *testing.T) {
	m, repos := setupMachineTest(t, []workflow.TaskStatus{workflow.StatusApproved, workflow.StatusRejected})
	task := seedTask(t, m, repos)
	ctx := context.Background()

	_, err := m.Transition(ctx, task.ID, workflow.StatusClaimed, workflow.HumanActor("user-1"), "")
	require.NoError(t, err)
	_, err = m.Transition(ctx, task.ID, workflow.StatusInProgress, workflow.HumanActor("user-1"), "")
	require.NoError(t, err)

	// 非通知状态不入队
	pending, err := repos.Notifications.ListDeliverable(ctx, 10, false)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = m.Transition(ctx, task.ID, workflow.StatusApproved, workflow.HumanActor("user-1"), "")
	require.NoError(t, err)

	// 批准后恰好一条待发送通知
	pending, err = repos.Notifications.ListDeliverable(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, task.ID, pending[0].TaskID)
	assert.Equal(t, "user-1", pending[0].Target)
	assert.Equal(t, "task_approved", pending[0].TemplateRef)
	assert.Equal(t, workflow.NotificationPending, pending[0].Status)
}

// TestMachine_CreateTask 测试任务创建校验
func TestMachine_CreateTask(t *testing.T) {
	m, repos := setupMachineTest(t, nil)
	ctx := context.Background()

	wf := &workflow.Workflow{ID: "wf-1", Name: "发布审批", ScopeType: "information_object", Active: true}
	require.NoError(t, repos.Workflows.SaveWorkflow(ctx, wf))
	step := &workflow.WorkflowStep{ID: "step-1", WorkflowID: "wf-1", Position: 1}
	require.NoError(t, repos.Workflows.SaveStep(ctx, step))
	entity := workflow.EntityRef{ObjectType: "information_object", ObjectID: "obj-1"}

	// 步骤不属于工作流
	badStep := &workflow.WorkflowStep{ID: "step-x", WorkflowID: "wf-other", Position: 1}
	_, err := m.CreateTask(ctx, wf, badStep, entity, "user-1", 0)
	assert.ErrorIs(t, err, workflow.ErrValidation)

	// 空实体引用
	_, err = m.CreateTask(ctx, wf, step, workflow.EntityRef{}, "user-1", 0)
	assert.ErrorIs(t, err, workflow.ErrValidation)

	// 正常创建：任务pending + created历史
	task, err := m.CreateTask(ctx, wf, step, entity, "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, task.Status)

	history, err := repos.History.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.ActionCreated, history[0].Action)
	assert.True(t, history[0].PerformedBy.IsSystem())
}
