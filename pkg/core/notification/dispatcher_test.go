package notification_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	istorage "github.com/LENAX/workflow-engine/internal/storage"
	"github.com/LENAX/workflow-engine/pkg/core/notification"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
)

// fakeNotifier 测试用投递器：按目标决定成功或失败
type fakeNotifier struct {
	sent       []string
	failTarget string
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(ctx context.Context, n *workflow.WorkflowNotification) error {
	if n.Target == f.failTarget {
		return fmt.Errorf("目标不可达: %s", n.Target)
	}
	f.sent = append(f.sent, n.ID)
	return nil
}

// setupDispatcherTest 创建测试数据库
func setupDispatcherTest(t *testing.T) *istorage.Repositories {
	dbFile := filepath.Join(t.TempDir(), "test_dispatcher.db")
	repos, err := istorage.Open("sqlite", dbFile)
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// TestDispatcher_ProcessPending 测试待发送通知的投递
func TestDispatcher_ProcessPending(t *testing.T) {
	repos := setupDispatcherTest(t)
	ctx := context.Background()

	n1 := workflow.NewNotification("task-1", "user-1", "task_approved")
	n2 := workflow.NewNotification("task-2", "user-2", "task_rejected")
	require.NoError(t, repos.Notifications.Enqueue(ctx, n1))
	require.NoError(t, repos.Notifications.Enqueue(ctx, n2))

	notifier := &fakeNotifier{}
	d := notification.NewDispatcher(repos.Notifications, notifier, notification.Options{})
	report, err := d.ProcessPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, notifier.sent, 2)

	// 每条被选中的通知都进入终态，不停留在pending
	for _, id := range []string{n1.ID, n2.ID} {
		stored, err := repos.Notifications.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, workflow.NotificationSent, stored.Status)
	}
}

// TestDispatcher_FailureRecorded 测试投递失败记录原因且不中断批次
func TestDispatcher_FailureRecorded(t *testing.T) {
	repos := setupDispatcherTest(t)
	ctx := context.Background()

	ok := workflow.NewNotification("task-1", "user-1", "task_approved")
	bad := workflow.NewNotification("task-2", "unreachable", "task_approved")
	require.NoError(t, repos.Notifications.Enqueue(ctx, ok))
	require.NoError(t, repos.Notifications.Enqueue(ctx, bad))

	notifier := &fakeNotifier{failTarget: "unreachable"}
	d := notification.NewDispatcher(repos.Notifications, notifier, notification.Options{})
	report, err := d.ProcessPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)

	stored, err := repos.Notifications.GetByID(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.NotificationFailed, stored.Status)
	assert.Contains(t, stored.LastError, "目标不可达")
}

// TestDispatcher_FailedNotRetriedByDefault 测试失败通知默认不重试
func TestDispatcher_FailedNotRetriedByDefault(t *testing.T) {
	repos := setupDispatcherTest(t)
	ctx := context.Background()

	bad := workflow.NewNotification("task-1", "unreachable", "task_approved")
	require.NoError(t, repos.Notifications.Enqueue(ctx, bad))

	notifier := &fakeNotifier{failTarget: "unreachable"}
	d := notification.NewDispatcher(repos.Notifications, notifier, notification.Options{})
	_, err := d.ProcessPending(ctx, 100)
	require.NoError(t, err)

	// 第二次批次不会再选中failed通知
	report, err := d.ProcessPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 0, report.Failed)
}

// TestDispatcher_RetryFailed 测试开启重试后失败通知重新投递
func TestDispatcher_RetryFailed(t *testing.T) {
	repos := setupDispatcherTest(t)
	ctx := context.Background()

	bad := workflow.NewNotification("task-1", "flaky-user", "task_approved")
	require.NoError(t, repos.Notifications.Enqueue(ctx, bad))

	// 第一次投递失败
	failing := &fakeNotifier{failTarget: "flaky-user"}
	d := notification.NewDispatcher(repos.Notifications, failing, notification.Options{RetryFailed: true})
	report, err := d.ProcessPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	// 目标恢复后重试成功
	recovered := &fakeNotifier{}
	d = notification.NewDispatcher(repos.Notifications, recovered, notification.Options{RetryFailed: true})
	report, err = d.ProcessPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)

	stored, err := repos.Notifications.GetByID(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.NotificationSent, stored.Status)
}

// TestDispatcher_SentNeverReprocessed 测试已发送通知不会被重复投递
func TestDispatcher_SentNeverReprocessed(t *testing.T) {
	repos := setupDispatcherTest(t)
	ctx := context.Background()

	n := workflow.NewNotification("task-1", "user-1", "task_approved")
	require.NoError(t, repos.Notifications.Enqueue(ctx, n))

	notifier := &fakeNotifier{}
	d := notification.NewDispatcher(repos.Notifications, notifier, notification.Options{RetryFailed: true})
	_, err := d.ProcessPending(ctx, 100)
	require.NoError(t, err)

	report, err := d.ProcessPending(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Len(t, notifier.sent, 1)
}
