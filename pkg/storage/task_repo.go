package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage/dao"
)

// taskRepo TaskRepository的sqlx实现（小写，不导出）
type taskRepo struct {
	db *sqlx.DB
}

// NewTaskRepo 创建任务存储实例（对外导出）
func NewTaskRepo(db *sqlx.DB) TaskRepository {
	return &taskRepo{db: db}
}

const taskColumns = `id, workflow_id, step_id, object_type, object_id, assigned_to, status,
	priority, due_date, created_at, updated_at, escalated_at, decided_at`

// Create 创建任务，并在同一事务内追加created历史记录
func (r *taskRepo) Create(ctx context.Context, task *workflow.WorkflowTask, history *workflow.WorkflowHistory) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	insertTask := `
	INSERT INTO workflow_task (` + taskColumns + `)
	VALUES (:id, :workflow_id, :step_id, :object_type, :object_id, :assigned_to, :status,
	 :priority, :due_date, :created_at, :updated_at, :escalated_at, :decided_at)
	`
	if _, err := tx.NamedExecContext(ctx, insertTask, taskToDAO(task)); err != nil {
		return fmt.Errorf("保存Task失败: %w", err)
	}

	if history != nil {
		if err := insertHistory(ctx, tx, history); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// GetByID 根据ID查询任务
func (r *taskRepo) GetByID(ctx context.Context, id string) (*workflow.WorkflowTask, error) {
	var d dao.TaskDAO
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM workflow_task WHERE id = ?`)
	err := r.db.GetContext(ctx, &d, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询Task失败: %w", err)
	}
	return taskFromDAO(&d), nil
}

// List 按过滤条件查询任务
func (r *taskRepo) List(ctx context.Context, filter TaskFilter) ([]*workflow.WorkflowTask, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.AssignedTo != "" {
		conditions = append(conditions, "assigned_to = ?")
		args = append(args, filter.AssignedTo)
	}
	if filter.WorkflowID != "" {
		conditions = append(conditions, "workflow_id = ?")
		args = append(args, filter.WorkflowID)
	}
	if filter.OverdueAt != nil {
		conditions = append(conditions, "due_date IS NOT NULL AND due_date < ?")
		args = append(args, *filter.OverdueAt)
	}

	query := `SELECT ` + taskColumns + ` FROM workflow_task`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var daos []dao.TaskDAO
	if err := r.db.SelectContext(ctx, &daos, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("查询Task列表失败: %w", err)
	}

	tasks := make([]*workflow.WorkflowTask, 0, len(daos))
	for i := range daos {
		tasks = append(tasks, taskFromDAO(&daos[i]))
	}
	return tasks, nil
}

// CountByStatus 按状态统计任务数量
func (r *taskRepo) CountByStatus(ctx context.Context) (map[workflow.TaskStatus]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	query := `SELECT status, COUNT(*) AS count FROM workflow_task GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("统计Task状态失败: %w", err)
	}

	counts := make(map[workflow.TaskStatus]int, len(rows))
	for _, row := range rows {
		counts[workflow.TaskStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// ListOverdue 查询升级候选任务
// 选择条件：已超期、状态不在终态与escalated之中、所属步骤配置了升级目标
func (r *taskRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*OverdueTask, error) {
	query := r.db.Rebind(`
	SELECT t.id, t.workflow_id, t.step_id, t.object_type, t.object_id, t.assigned_to, t.status,
	       t.priority, t.due_date, t.created_at, t.updated_at, t.escalated_at, t.decided_at,
	       s.escalation_user_id
	FROM workflow_task t
	JOIN workflow_step s ON s.id = t.step_id
	WHERE t.due_date IS NOT NULL AND t.due_date < ?
	  AND t.status NOT IN ('approved', 'rejected', 'cancelled', 'escalated')
	  AND s.escalation_user_id IS NOT NULL AND s.escalation_user_id != ''
	ORDER BY t.due_date ASC, t.id ASC
	LIMIT ?
	`)

	var daos []dao.TaskDAO
	if err := r.db.SelectContext(ctx, &daos, query, now, limit); err != nil {
		return nil, fmt.Errorf("查询超期Task失败: %w", err)
	}

	overdue := make([]*OverdueTask, 0, len(daos))
	for i := range daos {
		overdue = append(overdue, &OverdueTask{
			Task:             taskFromDAO(&daos[i]),
			EscalationUserID: daos[i].EscalationUserID.String,
		})
	}
	return overdue, nil
}

// ApplyTransition 条件更新任务状态并写入历史（乐观锁）
// UPDATE以record.From为条件，写入时状态不符返回workflow.ErrConflict
func (r *taskRepo) ApplyTransition(ctx context.Context, record *TransitionRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(record.To), now}
	if record.NewAssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *record.NewAssignedTo)
	}
	if record.EscalatedAt != nil {
		sets = append(sets, "escalated_at = ?")
		args = append(args, *record.EscalatedAt)
	}
	if record.DecidedAt != nil {
		sets = append(sets, "decided_at = ?")
		args = append(args, *record.DecidedAt)
	}
	args = append(args, record.TaskID, string(record.From))

	update := r.db.Rebind(
		"UPDATE workflow_task SET " + strings.Join(sets, ", ") + " WHERE id = ? AND status = ?")
	result, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return fmt.Errorf("更新Task状态失败: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("读取更新行数失败: %w", err)
	}
	if affected == 0 {
		// 区分任务不存在与并发冲突
		var exists int
		check := r.db.Rebind(`SELECT COUNT(*) FROM workflow_task WHERE id = ?`)
		if err := tx.GetContext(ctx, &exists, check, record.TaskID); err != nil {
			return fmt.Errorf("检查Task存在性失败: %w", err)
		}
		if exists == 0 {
			return workflow.ErrTaskNotFound
		}
		return workflow.ErrConflict
	}

	if record.History != nil {
		if err := insertHistory(ctx, tx, record.History); err != nil {
			return err
		}
	}
	if record.Notification != nil {
		if err := insertNotification(ctx, tx, record.Notification); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// DeleteTerminalBefore 硬删除updated_at早于cutoff的终态任务
func (r *taskRepo) DeleteTerminalBefore(ctx context.Context, workflowID string, cutoff time.Time) (int64, error) {
	query := `
	DELETE FROM workflow_task
	WHERE status IN ('approved', 'rejected', 'cancelled') AND updated_at < ?
	`
	args := []interface{}{cutoff}
	if workflowID != "" {
		query += " AND workflow_id = ?"
		args = append(args, workflowID)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("删除终态Task失败: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("读取删除行数失败: %w", err)
	}
	return affected, nil
}

// taskToDAO 业务实体转DAO
func taskToDAO(t *workflow.WorkflowTask) *dao.TaskDAO {
	d := &dao.TaskDAO{
		ID:         t.ID,
		WorkflowID: t.WorkflowID,
		StepID:     t.StepID,
		ObjectType: t.Entity.ObjectType,
		ObjectID:   t.Entity.ObjectID,
		AssignedTo: t.AssignedTo,
		Status:     string(t.Status),
		Priority:   t.Priority,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.DueDate != nil {
		d.DueDate.Valid = true
		d.DueDate.Time = *t.DueDate
	}
	if t.EscalatedAt != nil {
		d.EscalatedAt.Valid = true
		d.EscalatedAt.Time = *t.EscalatedAt
	}
	if t.DecidedAt != nil {
		d.DecidedAt.Valid = true
		d.DecidedAt.Time = *t.DecidedAt
	}
	return d
}

// taskFromDAO DAO转业务实体
func taskFromDAO(d *dao.TaskDAO) *workflow.WorkflowTask {
	t := &workflow.WorkflowTask{
		ID:         d.ID,
		WorkflowID: d.WorkflowID,
		StepID:     d.StepID,
		Entity:     workflow.EntityRef{ObjectType: d.ObjectType, ObjectID: d.ObjectID},
		AssignedTo: d.AssignedTo,
		Status:     workflow.TaskStatus(d.Status),
		Priority:   d.Priority,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.DueDate.Valid {
		t.DueDate = &d.DueDate.Time
	}
	if d.EscalatedAt.Valid {
		t.EscalatedAt = &d.EscalatedAt.Time
	}
	if d.DecidedAt.Valid {
		t.DecidedAt = &d.DecidedAt.Time
	}
	return t
}
