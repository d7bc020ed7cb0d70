// Package dao 定义各表的数据访问对象（内部使用）
package dao

import (
	"database/sql"
	"time"
)

// WorkflowDAO workflow表的数据访问对象（内部使用）
type WorkflowDAO struct {
	ID              string        `db:"id"`
	Name            string        `db:"name"`
	ScopeType       string        `db:"scope_type"`
	Active          bool          `db:"active"`
	AutoArchiveDays sql.NullInt64 `db:"auto_archive_days"`
	CreatedAt       time.Time     `db:"created_at"`
}

// StepDAO workflow_step表的数据访问对象（内部使用）
type StepDAO struct {
	ID               string         `db:"id"`
	WorkflowID       string         `db:"workflow_id"`
	Position         int            `db:"position"`
	AssignmentRule   string         `db:"assignment_rule"`
	Assignee         string         `db:"assignee"`
	DueOffsetDays    int            `db:"due_offset_days"`
	EscalationUserID sql.NullString `db:"escalation_user_id"`
}
