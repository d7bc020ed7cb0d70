// Package postgres 提供PostgreSQL方言实现
package postgres

import "github.com/LENAX/workflow-engine/pkg/storage"

// Dialect PostgreSQL方言实现（对外导出）
type Dialect struct{}

// NewDialect 创建PostgreSQL方言实例
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name 返回方言名称
func (d *Dialect) Name() string {
	return "postgres"
}

// DriverName 返回sql驱动注册名
func (d *Dialect) DriverName() string {
	return "postgres"
}

// Schema 返回建表DDL
func (d *Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS workflow (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			scope_type VARCHAR(64) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			auto_archive_days INTEGER,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS workflow_step (
			id VARCHAR(64) PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL,
			position INTEGER NOT NULL,
			assignment_rule VARCHAR(32) NOT NULL,
			assignee VARCHAR(64) NOT NULL DEFAULT '',
			due_offset_days INTEGER NOT NULL DEFAULT 0,
			escalation_user_id VARCHAR(64)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_step_workflow_id ON workflow_step(workflow_id, position);`,
		`CREATE TABLE IF NOT EXISTS workflow_task (
			id VARCHAR(64) PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL,
			step_id VARCHAR(64) NOT NULL,
			object_type VARCHAR(64) NOT NULL,
			object_id VARCHAR(64) NOT NULL,
			assigned_to VARCHAR(64) NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			due_date TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			escalated_at TIMESTAMP,
			decided_at TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_task_status ON workflow_task(status);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_task_due_date ON workflow_task(due_date);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_task_assigned_to ON workflow_task(assigned_to);`,
		`CREATE TABLE IF NOT EXISTS workflow_history (
			id VARCHAR(64) PRIMARY KEY,
			task_id VARCHAR(64) NOT NULL,
			workflow_id VARCHAR(64) NOT NULL,
			step_id VARCHAR(64) NOT NULL,
			object_type VARCHAR(64) NOT NULL,
			object_id VARCHAR(64) NOT NULL,
			action VARCHAR(32) NOT NULL,
			from_status VARCHAR(32) NOT NULL,
			to_status VARCHAR(32) NOT NULL,
			actor_kind VARCHAR(16) NOT NULL,
			actor_user_id VARCHAR(64) NOT NULL DEFAULT '',
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_history_task_id ON workflow_history(task_id);`,
		`CREATE TABLE IF NOT EXISTS workflow_notification (
			id VARCHAR(64) PRIMARY KEY,
			task_id VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL,
			target VARCHAR(255) NOT NULL,
			template_ref VARCHAR(255) NOT NULL DEFAULT '',
			last_error TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_notification_status ON workflow_notification(status);`,
	}
}

// ConfigureDB PostgreSQL无需额外连接配置
func (d *Dialect) ConfigureDB() []string {
	return nil
}

// 确保实现接口
var _ storage.Dialect = (*Dialect)(nil)
