package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage/dao"
)

// notificationRepo NotificationRepository的sqlx实现（小写，不导出）
type notificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo 创建通知存储实例（对外导出）
func NewNotificationRepo(db *sqlx.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

const notificationColumns = `id, task_id, status, target, template_ref, last_error, created_at, updated_at`

// insertNotification 在给定执行器（事务或连接）上入队通知
func insertNotification(ctx context.Context, e sqlx.ExtContext, n *workflow.WorkflowNotification) error {
	query := `
	INSERT INTO workflow_notification (` + notificationColumns + `)
	VALUES (:id, :task_id, :status, :target, :template_ref, :last_error, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, e, query, notificationToDAO(n)); err != nil {
		return fmt.Errorf("通知入队失败: %w", err)
	}
	return nil
}

// Enqueue 通知入队
func (r *notificationRepo) Enqueue(ctx context.Context, n *workflow.WorkflowNotification) error {
	return insertNotification(ctx, r.db, n)
}

// GetByID 根据ID查询通知
func (r *notificationRepo) GetByID(ctx context.Context, id string) (*workflow.WorkflowNotification, error) {
	var d dao.NotificationDAO
	query := r.db.Rebind(`SELECT ` + notificationColumns + ` FROM workflow_notification WHERE id = ?`)
	err := r.db.GetContext(ctx, &d, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询Notification失败: %w", err)
	}
	return notificationFromDAO(&d), nil
}

// ListDeliverable 查询待投递通知
// includeFailed为true时失败的通知重新参与投递（可配置重试）
func (r *notificationRepo) ListDeliverable(ctx context.Context, limit int, includeFailed bool) ([]*workflow.WorkflowNotification, error) {
	statuses := "('pending')"
	if includeFailed {
		statuses = "('pending', 'failed')"
	}
	query := r.db.Rebind(`
	SELECT ` + notificationColumns + ` FROM workflow_notification
	WHERE status IN ` + statuses + `
	ORDER BY created_at ASC, id ASC
	LIMIT ?
	`)

	var daos []dao.NotificationDAO
	if err := r.db.SelectContext(ctx, &daos, query, limit); err != nil {
		return nil, fmt.Errorf("查询待投递Notification失败: %w", err)
	}

	notifications := make([]*workflow.WorkflowNotification, 0, len(daos))
	for i := range daos {
		notifications = append(notifications, notificationFromDAO(&daos[i]))
	}
	return notifications, nil
}

// MarkSent 标记通知发送成功
func (r *notificationRepo) MarkSent(ctx context.Context, id string) error {
	query := r.db.Rebind(`
	UPDATE workflow_notification SET status = 'sent', last_error = NULL, updated_at = ? WHERE id = ?
	`)
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("标记Notification发送成功失败: %w", err)
	}
	return nil
}

// MarkFailed 标记通知发送失败并记录原因
func (r *notificationRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	query := r.db.Rebind(`
	UPDATE workflow_notification SET status = 'failed', last_error = ?, updated_at = ? WHERE id = ?
	`)
	if _, err := r.db.ExecContext(ctx, query, reason, time.Now(), id); err != nil {
		return fmt.Errorf("标记Notification失败状态失败: %w", err)
	}
	return nil
}

// notificationToDAO 业务实体转DAO
func notificationToDAO(n *workflow.WorkflowNotification) *dao.NotificationDAO {
	d := &dao.NotificationDAO{
		ID:          n.ID,
		TaskID:      n.TaskID,
		Status:      string(n.Status),
		Target:      n.Target,
		TemplateRef: n.TemplateRef,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if n.LastError != "" {
		d.LastError.Valid = true
		d.LastError.String = n.LastError
	}
	return d
}

// notificationFromDAO DAO转业务实体
func notificationFromDAO(d *dao.NotificationDAO) *workflow.WorkflowNotification {
	n := &workflow.WorkflowNotification{
		ID:          d.ID,
		TaskID:      d.TaskID,
		Status:      workflow.NotificationStatus(d.Status),
		Target:      d.Target,
		TemplateRef: d.TemplateRef,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.LastError.Valid {
		n.LastError = d.LastError.String
	}
	return n
}
