// Package mysql 提供MySQL方言实现
package mysql

import "github.com/LENAX/workflow-engine/pkg/storage"

// Dialect MySQL方言实现（对外导出）
type Dialect struct{}

// NewDialect 创建MySQL方言实例
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name 返回方言名称
func (d *Dialect) Name() string {
	return "mysql"
}

// DriverName 返回sql驱动注册名
func (d *Dialect) DriverName() string {
	return "mysql"
}

// Schema 返回建表DDL
func (d *Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS workflow (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			scope_type VARCHAR(64) NOT NULL,
			active TINYINT(1) NOT NULL DEFAULT 1,
			auto_archive_days INT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB;`,
		`CREATE TABLE IF NOT EXISTS workflow_step (
			id VARCHAR(64) PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL,
			position INT NOT NULL,
			assignment_rule VARCHAR(32) NOT NULL,
			assignee VARCHAR(64) NOT NULL DEFAULT '',
			due_offset_days INT NOT NULL DEFAULT 0,
			escalation_user_id VARCHAR(64),
			INDEX idx_workflow_step_workflow_id (workflow_id, position)
		) ENGINE=InnoDB;`,
		`CREATE TABLE IF NOT EXISTS workflow_task (
			id VARCHAR(64) PRIMARY KEY,
			workflow_id VARCHAR(64) NOT NULL,
			step_id VARCHAR(64) NOT NULL,
			object_type VARCHAR(64) NOT NULL,
			object_id VARCHAR(64) NOT NULL,
			assigned_to VARCHAR(64) NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL,
			priority INT NOT NULL DEFAULT 0,
			due_date DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			escalated_at DATETIME,
			decided_at DATETIME,
			INDEX idx_workflow_task_status (status),
			INDEX idx_workflow_task_due_date (due_date),
			INDEX idx_workflow_task_assigned_to (assigned_to)
		) ENGINE=InnoDB;`,
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
			comment TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_workflow_history_task_id (task_id)
		) ENGINE=InnoDB;`,
		`CREATE TABLE IF NOT EXISTS workflow_notification (
			id VARCHAR(64) PRIMARY KEY,
			task_id VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL,
			target VARCHAR(255) NOT NULL,
			template_ref VARCHAR(255) NOT NULL DEFAULT '',
			last_error TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_workflow_notification_status (status)
		) ENGINE=InnoDB;`,
	}
}

// ConfigureDB MySQL无需额外连接配置
func (d *Dialect) ConfigureDB() []string {
	return nil
}

// 确保实现接口
var _ storage.Dialect = (*Dialect)(nil)
