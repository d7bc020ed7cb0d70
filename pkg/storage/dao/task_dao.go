package dao

import (
	"database/sql"
	"time"
)

// TaskDAO workflow_task表的数据访问对象（内部使用）
type TaskDAO struct {
	ID          string       `db:"id"`
	WorkflowID  string       `db:"workflow_id"`
	StepID      string       `db:"step_id"`
	ObjectType  string       `db:"object_type"`
	ObjectID    string       `db:"object_id"`
	AssignedTo  string       `db:"assigned_to"`
	Status      string       `db:"status"`
	Priority    int          `db:"priority"`
	DueDate     sql.NullTime `db:"due_date"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	EscalatedAt sql.NullTime `db:"escalated_at"`
	DecidedAt   sql.NullTime `db:"decided_at"`
	// ListOverdue联查workflow_step时填充
	EscalationUserID sql.NullString `db:"escalation_user_id"`
}

// HistoryDAO workflow_history表的数据访问对象（内部使用）
type HistoryDAO struct {
	ID          string    `db:"id"`
	TaskID      string    `db:"task_id"`
	WorkflowID  string    `db:"workflow_id"`
	StepID      string    `db:"step_id"`
	ObjectType  string    `db:"object_type"`
	ObjectID    string    `db:"object_id"`
	Action      string    `db:"action"`
	FromStatus  string    `db:"from_status"`
	ToStatus    string    `db:"to_status"`
	ActorKind   string    `db:"actor_kind"`
	ActorUserID string    `db:"actor_user_id"`
	Comment     string    `db:"comment"`
	CreatedAt   time.Time `db:"created_at"`
}

// NotificationDAO workflow_notification表的数据访问对象（内部使用）
type NotificationDAO struct {
	ID          string         `db:"id"`
	TaskID      string         `db:"task_id"`
	Status      string         `db:"status"`
	Target      string         `db:"target"`
	TemplateRef string         `db:"template_ref"`
	LastError   sql.NullString `db:"last_error"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
