package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage/dao"
)

// historyRepo HistoryRepository的sqlx实现（小写，不导出）
// 只追加，接口上不提供更新和删除
type historyRepo struct {
	db *sqlx.DB
}

// NewHistoryRepo 创建历史存储实例（对外导出）
func NewHistoryRepo(db *sqlx.DB) HistoryRepository {
	return &historyRepo{db: db}
}

const historyColumns = `id, task_id, workflow_id, step_id, object_type, object_id,
	action, from_status, to_status, actor_kind, actor_user_id, comment, created_at`

// insertHistory 在给定执行器（事务或连接）上追加历史记录
func insertHistory(ctx context.Context, e sqlx.ExtContext, h *workflow.WorkflowHistory) error {
	query := `
	INSERT INTO workflow_history (` + historyColumns + `)
	VALUES (:id, :task_id, :workflow_id, :step_id, :object_type, :object_id,
	 :action, :from_status, :to_status, :actor_kind, :actor_user_id, :comment, :created_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, e, query, historyToDAO(h)); err != nil {
		return fmt.Errorf("追加History失败: %w", err)
	}
	return nil
}

// Append 追加历史记录
func (r *historyRepo) Append(ctx context.Context, h *workflow.WorkflowHistory) error {
	return insertHistory(ctx, r.db, h)
}

// ListByTask 按时间顺序查询任务的历史记录
func (r *historyRepo) ListByTask(ctx context.Context, taskID string) ([]*workflow.WorkflowHistory, error) {
	var daos []dao.HistoryDAO
	query := r.db.Rebind(`
	SELECT ` + historyColumns + ` FROM workflow_history
	WHERE task_id = ? ORDER BY created_at ASC, id ASC
	`)
	if err := r.db.SelectContext(ctx, &daos, query, taskID); err != nil {
		return nil, fmt.Errorf("查询History列表失败: %w", err)
	}

	records := make([]*workflow.WorkflowHistory, 0, len(daos))
	for i := range daos {
		records = append(records, historyFromDAO(&daos[i]))
	}
	return records, nil
}

// CountByTask 统计任务的历史记录数量
func (r *historyRepo) CountByTask(ctx context.Context, taskID string) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM workflow_history WHERE task_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, taskID); err != nil {
		return 0, fmt.Errorf("统计History数量失败: %w", err)
	}
	return count, nil
}

// historyToDAO 业务实体转DAO
func historyToDAO(h *workflow.WorkflowHistory) *dao.HistoryDAO {
	return &dao.HistoryDAO{
		ID:          h.ID,
		TaskID:      h.TaskID,
		WorkflowID:  h.WorkflowID,
		StepID:      h.StepID,
		ObjectType:  h.Entity.ObjectType,
		ObjectID:    h.Entity.ObjectID,
		Action:      h.Action,
		FromStatus:  string(h.FromStatus),
		ToStatus:    string(h.ToStatus),
		ActorKind:   string(h.PerformedBy.Kind),
		ActorUserID: h.PerformedBy.UserID,
		Comment:     h.Comment,
		CreatedAt:   h.CreatedAt,
	}
}

// historyFromDAO DAO转业务实体
func historyFromDAO(d *dao.HistoryDAO) *workflow.WorkflowHistory {
	return &workflow.WorkflowHistory{
		ID:         d.ID,
		TaskID:     d.TaskID,
		WorkflowID: d.WorkflowID,
		StepID:     d.StepID,
		Entity:     workflow.EntityRef{ObjectType: d.ObjectType, ObjectID: d.ObjectID},
		Action:     d.Action,
		FromStatus: workflow.TaskStatus(d.FromStatus),
		ToStatus:   workflow.TaskStatus(d.ToStatus),
		PerformedBy: workflow.Actor{
			Kind:   workflow.ActorKind(d.ActorKind),
			UserID: d.ActorUserID,
		},
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt,
	}
}
