package retention_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	istorage "github.com/LENAX/workflow-engine/internal/storage"
	"github.com/LENAX/workflow-engine/pkg/core/retention"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

// setupArchiverTest 创建测试数据库
func setupArchiverTest(t *testing.T) *istorage.Repositories {
	dbFile := filepath.Join(t.TempDir(), "test_archiver.db")
	repos, err := istorage.Open("sqlite", dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// seedWorkflow 创建工作流定义
func seedWorkflow(t *testing.T, repos *istorage.Repositories, id string, archiveDays *int) {
	ctx := context.Background()
	wf := &workflow.Workflow{
		ID:              id,
		Name:            "发布审批-" + id,
		ScopeType:       "information_object",
		Active:          true,
		AutoArchiveDays: archiveDays,
	}
	require.NoError(t, repos.Workflows.SaveWorkflow(ctx, wf))
}

// seedAgedTask 创建指定状态与最后更新时间的任务
func seedAgedTask(t *testing.T, repos *istorage.Repositories, workflowID string, status workflow.TaskStatus, updatedAt time.Time) *workflow.WorkflowTask {
	ctx := context.Background()
	task := &workflow.WorkflowTask{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		StepID:     "step-1",
		Entity:     workflow.EntityRef{ObjectType: "information_object", ObjectID: uuid.New().String()},
		AssignedTo: "user-1",
		Status:     status,
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
	require.NoError(t, repos.Tasks.Create(ctx, task, &workflow.WorkflowHistory{
		ID:          uuid.New().String(),
		TaskID:      task.ID,
		WorkflowID:  workflowID,
		StepID:      "step-1",
		Entity:      task.Entity,
		Action:      workflow.ActionCreated,
		ToStatus:    status,
		PerformedBy: workflow.SystemActor,
		CreatedAt:   updatedAt,
	}))
	return task
}

// TestArchiver_GlobalRetention 测试全局保留期删除
func TestArchiver_GlobalRetention(t *testing.T) {
	repos := setupArchiverTest(t)
	seedWorkflow(t, repos, "wf-1", nil)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -100)
	recent := time.Now().AddDate(0, 0, -10)

	aged := seedAgedTask(t, repos, "wf-1", workflow.StatusApproved, old)
	kept := seedAgedTask(t, repos, "wf-1", workflow.StatusApproved, recent)

	a := retention.NewArchiver(repos.Tasks, repos.Workflows)
	report, err := a.ArchiveOlderThan(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Archived)

	// 超过保留期的终态任务被删除
	stored, err := repos.Tasks.GetByID(ctx, aged.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// 保留期内的任务保留
	stored, err = repos.Tasks.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

// TestArchiver_NonTerminalNeverDeleted 测试非终态任务永不删除
func TestArchiver_NonTerminalNeverDeleted(t *testing.T) {
	repos := setupArchiverTest(t)
	seedWorkflow(t, repos, "wf-1", nil)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -365)
	nonTerminal := []workflow.TaskStatus{
		workflow.StatusPending, workflow.StatusClaimed,
		workflow.StatusInProgress, workflow.StatusEscalated,
	}
	for _, status := range nonTerminal {
		seedAgedTask(t, repos, "wf-1", status, old)
	}

	a := retention.NewArchiver(repos.Tasks, repos.Workflows)
	report, err := a.ArchiveOlderThan(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Archived)

	counts, err := repos.Tasks.CountByStatus(ctx)
	require.NoError(t, err)
	for _, status := range nonTerminal {
		assert.Equal(t, 1, counts[status], "状态%s的任务不应被删除", status)
	}
}

// TestArchiver_WorkflowLevelRetention 测试工作流级保留期先于全局生效
func TestArchiver_WorkflowLevelRetention(t *testing.T) {
	repos := setupArchiverTest(t)
	days := 30
	seedWorkflow(t, repos, "wf-short", &days)
	seedWorkflow(t, repos, "wf-default", nil)
	ctx := context.Background()

	// 45天前的任务：超过wf-short的30天，但未超过全局90天
	age := time.Now().AddDate(0, 0, -45)
	shortTask := seedAgedTask(t, repos, "wf-short", workflow.StatusRejected, age)
	defaultTask := seedAgedTask(t, repos, "wf-default", workflow.StatusRejected, age)

	a := retention.NewArchiver(repos.Tasks, repos.Workflows)
	report, err := a.ArchiveOlderThan(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Archived)

	// wf-short的任务被工作流级截止删除
	stored, err := repos.Tasks.GetByID(ctx, shortTask.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// 无工作流级配置的任务受全局保留期保护
	stored, err = repos.Tasks.GetByID(ctx, defaultTask.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

// TestArchiver_HistorySurvivesDeletion 测试历史记录在任务删除后保留
func TestArchiver_HistorySurvivesDeletion(t *testing.T) {
	repos := setupArchiverTest(t)
	seedWorkflow(t, repos, "wf-1", nil)
	ctx := context.Background()

	aged := seedAgedTask(t, repos, "wf-1", workflow.StatusApproved, time.Now().AddDate(0, 0, -100))

	a := retention.NewArchiver(repos.Tasks, repos.Workflows)
	_, err := a.ArchiveOlderThan(ctx, 90)
	require.NoError(t, err)

	stored, err := repos.Tasks.GetByID(ctx, aged.ID)
	require.NoError(t, err)
	require.Nil(t, stored)

	// 审计记录仍可按task_id查询
	history, err := repos.History.ListByTask(ctx, aged.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

// TestArchiver_ZeroGlobalDaysSkipsGlobalPass 测试全局天数为0时仅工作流级生效
func TestArchiver_ZeroGlobalDaysSkipsGlobalPass(t *testing.T) {
	repos := setupArchiverTest(t)
	seedWorkflow(t, repos, "wf-1", nil)
	ctx := context.Background()

	aged := seedAgedTask(t, repos, "wf-1", workflow.StatusApproved, time.Now().AddDate(0, 0, -365))

	a := retention.NewArchiver(repos.Tasks, repos.Workflows)
	report, err := a.ArchiveOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Archived)

	stored, err := repos.Tasks.GetByID(ctx, aged.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}
