// Package sqlite 提供SQLite方言实现
package sqlite

import "github.com/LENAX/workflow-engine/pkg/storage"

// Dialect SQLite方言实现（对外导出）
type Dialect struct{}

// NewDialect 创建SQLite方言实例
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name 返回方言名称
func (d *Dialect) Name() string {
	return "sqlite"
}

// DriverName 返回sql驱动注册名
func (d *Dialect) DriverName() string {
	return "sqlite3"
}

// Schema 返回建表DDL
func (d *Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS workflow (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			scope_type TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			auto_archive_days INTEGER,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS workflow_step (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			assignment_rule TEXT NOT NULL,
			assignee TEXT NOT NULL DEFAULT '',
			due_offset_days INTEGER NOT NULL DEFAULT 0,
			escalation_user_id TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_step_workflow_id ON workflow_step(workflow_id, position);`,
		`CREATE TABLE IF NOT EXISTS workflow_task (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			step_id TEXT NOT NULL,
			object_type TEXT NOT NULL,
			object_id TEXT NOT NULL,
			assigned_to TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			due_date DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			escalated_at DATETIME,
			decided_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_task_status ON workflow_task(status);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_task_due_date ON workflow_task(due_date);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_task_assigned_to ON workflow_task(assigned_to);`,
		// 历史表对task_id不建外键：任务归档删除后审计记录仍然保留
		`CREATE TABLE IF NOT EXISTS workflow_history (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			workflow_id TEXT NOT NULL,
			step_id TEXT NOT NULL,
			object_type TEXT NOT NULL,
			object_id TEXT NOT NULL,
			action TEXT NOT NULL,
			from_status TEXT NOT NULL,
			to_status TEXT NOT NULL,
			actor_kind TEXT NOT NULL,
			actor_user_id TEXT NOT NULL DEFAULT '',
			comment TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_history_task_id ON workflow_history(task_id);`,
		`CREATE TABLE IF NOT EXISTS workflow_notification (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			status TEXT NOT NULL,
			target TEXT NOT NULL,
			template_ref TEXT NOT NULL DEFAULT '',
			last_error TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_workflow_notification_status ON workflow_notification(status);`,
	}
}

// ConfigureDB 返回SQLite连接配置SQL
func (d *Dialect) ConfigureDB() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA synchronous=NORMAL;",
	}
}

// 确保实现接口
var _ storage.Dialect = (*Dialect)(nil)
