package escalation_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	istorage "github.com/LENAX/workflow-engine/internal/storage"
	"github.com/LENAX/workflow-engine/pkg/core/escalation"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage"
)

// setupEscalationTest 创建测试数据库
func setupEscalationTest(t *testing.T) *istorage.Repositories {
	dbFile := filepath.Join(t.TempDir(), "test_escalation.db")
	repos, err := istorage.Open("sqlite", dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// seedStep 创建工作流与步骤
func seedStep(t *testing.T, repos *istorage.Repositories, stepID, escalationUserID string) {
	ctx := context.Background()
	wf := &workflow.Workflow{ID: "wf-1", Name: "发布审批", ScopeType: "information_object", Active: true}
	require.NoError(t, repos.Workflows.SaveWorkflow(ctx, wf))
	step := &workflow.WorkflowStep{
		ID:               stepID,
		WorkflowID:       "wf-1",
		Position:         1,
		AssignmentRule:   workflow.AssignUser,
		Assignee:         "user-1",
		DueOffsetDays:    3,
		EscalationUserID: escalationUserID,
	}
	require.NoError(t, repos.Workflows.SaveStep(ctx, step))
}

// seedOverdueTask 创建指定到期日与状态的任务
func seedOverdueTask(t *testing.T, repos *istorage.Repositories, stepID string, status workflow.TaskStatus, due time.Time) *workflow.WorkflowTask {
	ctx := context.Background()
	now := time.Now()
	task := &workflow.WorkflowTask{
		ID:         uuid.New().String(),
		WorkflowID: "wf-1",
		StepID:     stepID,
		Entity:     workflow.EntityRef{ObjectType: "information_object", ObjectID: uuid.New().String()},
		AssignedTo: "user-1",
		Status:     status,
		DueDate:    &due,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repos.Tasks.Create(ctx, task, nil))
	return task
}

// TestEngine_EscalateOverdue 测试超期任务升级
func TestEngine_EscalateOverdue(t *testing.T) {
	repos := setupEscalationTest(t)
	seedStep(t, repos, "step-1", "manager-1")
	ctx := context.Background()

	overdueDue := time.Now().Add(-48 * time.Hour)
	task := seedOverdueTask(t, repos, "step-1", workflow.StatusPending, overdueDue)
	// 未超期任务不应被选中
	futureDue := time.Now().Add(48 * time.Hour)
	fresh := seedOverdueTask(t, repos, "step-1", workflow.StatusPending, futureDue)

	eng := escalation.NewEngine(repos.Tasks, escalation.Options{})
	report, err := eng.EscalateOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)
	assert.Equal(t, 0, report.Skipped)

	// 超期任务：状态escalated、改派升级目标、记录升级时间
	stored, err := repos.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusEscalated, stored.Status)
	assert.Equal(t, "manager-1", stored.AssignedTo)
	assert.NotNil(t, stored.EscalatedAt)

	// 历史记录为系统操作者 + 固定备注
	history, err := repos.History.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.ActionEscalated, history[0].Action)
	assert.True(t, history[0].PerformedBy.IsSystem())
	assert.Equal(t, workflow.EscalationComment, history[0].Comment)

	// 未超期任务保持不变
	storedFresh, err := repos.Tasks.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, storedFresh.Status)
	assert.Equal(t, "user-1", storedFresh.AssignedTo)
}

// TestEngine_Idempotent 测试批次可安全重跑
func TestEngine_Idempotent(t *testing.T) {
	repos := setupEscalationTest(t)
	seedStep(t, repos, "step-1", "manager-1")
	ctx := context.Background()

	seedOverdueTask(t, repos, "step-1", workflow.StatusClaimed, time.Now().Add(-24*time.Hour))

	eng := escalation.NewEngine(repos.Tasks, escalation.Options{})
	report, err := eng.EscalateOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)

	// 第二次运行：已升级的任务不再被选中
	report, err = eng.EscalateOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Escalated)
	assert.Equal(t, 0, report.Skipped)
}

// TestEngine_NoEscalationTarget 测试无升级目标的步骤不参与升级
func TestEngine_NoEscalationTarget(t *testing.T) {
	repos := setupEscalationTest(t)
	seedStep(t, repos, "step-1", "")
	ctx := context.Background()

	task := seedOverdueTask(t, repos, "step-1", workflow.StatusPending, time.Now().Add(-24*time.Hour))

	eng := escalation.NewEngine(repos.Tasks, escalation.Options{})
	report, err := eng.EscalateOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Escalated)

	stored, err := repos.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, stored.Status)
}

// TestEngine_TerminalTasksNotSelected 测试终态任务不参与升级
func TestEngine_TerminalTasksNotSelected(t *testing.T) {
	repos := setupEscalationTest(t)
	seedStep(t, repos, "step-1", "manager-1")
	ctx := context.Background()

	overdueDue := time.Now().Add(-24 * time.Hour)
	for _, status := range workflow.TerminalStatuses() {
		seedOverdueTask(t, repos, "step-1", status, overdueDue)
	}

	eng := escalation.NewEngine(repos.Tasks, escalation.Options{})
	report, err := eng.EscalateOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Escalated)
}

// TestEngine_CancelledBeforeBatchNotSelected 测试批次前被取消的任务不再被选中
func TestEngine_CancelledBeforeBatchNotSelected(t *testing.T) {
	repos := setupEscalationTest(t)
	seedStep(t, repos, "step-1", "manager-1")
	ctx := context.Background()

	task := seedOverdueTask(t, repos, "step-1", workflow.StatusPending, time.Now().Add(-24*time.Hour))

	// 操作员在批次开始前通过UI取消了任务
	require.NoError(t, repos.Tasks.ApplyTransition(ctx, &storage.TransitionRecord{
		TaskID: task.ID,
		From:   workflow.StatusPending,
		To:     workflow.StatusCancelled,
	}))

	eng := escalation.NewEngine(repos.Tasks, escalation.Options{})
	report, err := eng.EscalateOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Escalated)
	assert.Equal(t, 0, report.Skipped)

	stored, err := repos.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCancelled, stored.Status)
}

// TestEngine_BatchOrderAndLimit 测试按到期日升序选择且受limit约束
func TestEngine_BatchOrderAndLimit(t *testing.T) {
	repos := setupEscalationTest(t)
	seedStep(t, repos, "step-1", "manager-1")
	ctx := context.Background()

	oldest := seedOverdueTask(t, repos, "step-1", workflow.StatusPending, time.Now().Add(-72*time.Hour))
	newer := seedOverdueTask(t, repos, "step-1", workflow.StatusPending, time.Now().Add(-24*time.Hour))

	// limit=1时只升级到期最早的任务
	eng := escalation.NewEngine(repos.Tasks, escalation.Options{})
	report, err := eng.EscalateOverdue(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)

	storedOldest, err := repos.Tasks.GetByID(ctx, oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusEscalated, storedOldest.Status)

	storedNewer, err := repos.Tasks.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, storedNewer.Status)
}

// TestEngine_NotifyEscalated 测试升级通知选项
func TestEngine_NotifyEscalated(t *testing.T) {
	repos := setupEscalationTest(t)
	seedStep(t, repos, "step-1", "manager-1")
	ctx := context.Background()

	seedOverdueTask(t, repos, "step-1", workflow.StatusPending, time.Now().Add(-24*time.Hour))

	eng := escalation.NewEngine(repos.Tasks, escalation.Options{NotifyEscalated: true})
	report, err := eng.EscalateOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)

	// 为新审批人入队了一条升级通知
	pending, err := repos.Notifications.ListDeliverable(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "manager-1", pending[0].Target)
	assert.Equal(t, "task_escalated", pending[0].TemplateRef)
}
