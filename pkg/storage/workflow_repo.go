package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage/dao"
)

// workflowRepo WorkflowRepository的sqlx实现（小写，不导出）
// 通过sqlx的Rebind适配不同数据库的占位符，方言无关
type workflowRepo struct {
	db *sqlx.DB
}

// NewWorkflowRepo 创建工作流定义存储实例（对外导出）
func NewWorkflowRepo(db *sqlx.DB) WorkflowRepository {
	return &workflowRepo{db: db}
}

// SaveWorkflow 保存工作流定义
func (r *workflowRepo) SaveWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	d := workflowToDAO(wf)
	query := `
	INSERT INTO workflow (id, name, scope_type, active, auto_archive_days, created_at)
	VALUES (:id, :name, :scope_type, :active, :auto_archive_days, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("保存Workflow失败: %w", err)
	}
	return nil
}

// GetWorkflow 根据ID查询工作流定义
func (r *workflowRepo) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	var d dao.WorkflowDAO
	query := r.db.Rebind(`
	SELECT id, name, scope_type, active, auto_archive_days, created_at
	FROM workflow WHERE id = ?
	`)
	err := r.db.GetContext(ctx, &d, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询Workflow失败: %w", err)
	}
	return workflowFromDAO(&d), nil
}

// ListWorkflows 列出所有工作流定义
func (r *workflowRepo) ListWorkflows(ctx context.Context) ([]*workflow.Workflow, error) {
	var daos []dao.WorkflowDAO
	query := `
	SELECT id, name, scope_type, active, auto_archive_days, created_at
	FROM workflow ORDER BY created_at ASC, id ASC
	`
	if err := r.db.SelectContext(ctx, &daos, query); err != nil {
		return nil, fmt.Errorf("查询Workflow列表失败: %w", err)
	}

	workflows := make([]*workflow.Workflow, 0, len(daos))
	for i := range daos {
		workflows = append(workflows, workflowFromDAO(&daos[i]))
	}
	return workflows, nil
}

// SaveStep 保存工作流步骤
func (r *workflowRepo) SaveStep(ctx context.Context, step *workflow.WorkflowStep) error {
	d := stepToDAO(step)
	query := `
	INSERT INTO workflow_step (id, workflow_id, position, assignment_rule, assignee, due_offset_days, escalation_user_id)
	VALUES (:id, :workflow_id, :position, :assignment_rule, :assignee, :due_offset_days, :escalation_user_id)
	`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("保存WorkflowStep失败: %w", err)
	}
	return nil
}

// GetStep 根据ID查询工作流步骤
func (r *workflowRepo) GetStep(ctx context.Context, id string) (*workflow.WorkflowStep, error) {
	var d dao.StepDAO
	query := r.db.Rebind(`
	SELECT id, workflow_id, position, assignment_rule, assignee, due_offset_days, escalation_user_id
	FROM workflow_step WHERE id = ?
	`)
	err := r.db.GetContext(ctx, &d, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询WorkflowStep失败: %w", err)
	}
	return stepFromDAO(&d), nil
}

// ListSteps 按Position顺序列出工作流的所有步骤
func (r *workflowRepo) ListSteps(ctx context.Context, workflowID string) ([]*workflow.WorkflowStep, error) {
	var daos []dao.StepDAO
	query := r.db.Rebind(`
	SELECT id, workflow_id, position, assignment_rule, assignee, due_offset_days, escalation_user_id
	FROM workflow_step WHERE workflow_id = ? ORDER BY position ASC
	`)
	if err := r.db.SelectContext(ctx, &daos, query, workflowID); err != nil {
		return nil, fmt.Errorf("查询WorkflowStep列表失败: %w", err)
	}

	steps := make([]*workflow.WorkflowStep, 0, len(daos))
	for i := range daos {
		steps = append(steps, stepFromDAO(&daos[i]))
	}
	return steps, nil
}

// workflowToDAO 业务实体转DAO
func workflowToDAO(wf *workflow.Workflow) *dao.WorkflowDAO {
	d := &dao.WorkflowDAO{
		ID:        wf.ID,
		Name:      wf.Name,
		ScopeType: wf.ScopeType,
		Active:    wf.Active,
		CreatedAt: wf.CreatedAt,
	}
	if wf.AutoArchiveDays != nil {
		d.AutoArchiveDays.Valid = true
		d.AutoArchiveDays.Int64 = int64(*wf.AutoArchiveDays)
	}
	return d
}

// workflowFromDAO DAO转业务实体
func workflowFromDAO(d *dao.WorkflowDAO) *workflow.Workflow {
	wf := &workflow.Workflow{
		ID:        d.ID,
		Name:      d.Name,
		ScopeType: d.ScopeType,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
	}
	if d.AutoArchiveDays.Valid {
		days := int(d.AutoArchiveDays.Int64)
		wf.AutoArchiveDays = &days
	}
	return wf
}

// stepToDAO 业务实体转DAO
func stepToDAO(step *workflow.WorkflowStep) *dao.StepDAO {
	d := &dao.StepDAO{
		ID:             step.ID,
		WorkflowID:     step.WorkflowID,
		Position:       step.Position,
		AssignmentRule: string(step.AssignmentRule),
		Assignee:       step.Assignee,
		DueOffsetDays:  step.DueOffsetDays,
	}
	if step.EscalationUserID != "" {
		d.EscalationUserID.Valid = true
		d.EscalationUserID.String = step.EscalationUserID
	}
	return d
}

// stepFromDAO DAO转业务实体
func stepFromDAO(d *dao.StepDAO) *workflow.WorkflowStep {
	step := &workflow.WorkflowStep{
		ID:             d.ID,
		WorkflowID:     d.WorkflowID,
		Position:       d.Position,
		AssignmentRule: workflow.AssignmentRule(d.AssignmentRule),
		Assignee:       d.Assignee,
		DueOffsetDays:  d.DueOffsetDays,
	}
	if d.EscalationUserID.Valid {
		step.EscalationUserID = d.EscalationUserID.String
	}
	return step
}
