// Package storage 提供数据库连接与Repository装配（内部使用）
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	// 数据库驱动注册
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/workflow-engine/pkg/storage"
	"github.com/LENAX/workflow-engine/pkg/storage/mysql"
	"github.com/LENAX/workflow-engine/pkg/storage/postgres"
	"github.com/LENAX/workflow-engine/pkg/storage/sqlite"
)

// Repositories 存储Repository集合（内部使用）
type Repositories struct {
	Workflows     storage.WorkflowRepository
	Tasks         storage.TaskRepository
	History       storage.HistoryRepository
	Notifications storage.NotificationRepository

	db *sqlx.DB
}

// DB 返回底层数据库连接（测试与种子数据使用）
func (r *Repositories) DB() *sqlx.DB {
	return r.db
}

// Close 关闭数据库连接
func (r *Repositories) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// newDialect 根据数据库类型选择方言
func newDialect(dbType string) (storage.Dialect, error) {
	switch dbType {
	case "sqlite":
		return sqlite.NewDialect(), nil
	case "mysql":
		return mysql.NewDialect(), nil
	case "postgres", "postgresql":
		return postgres.NewDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// Open 打开数据库连接并初始化表结构（内部方法）
// dbType: 数据库类型（sqlite/mysql/postgres）
// dsn: 数据库连接字符串
func Open(dbType, dsn string) (*Repositories, error) {
	dialect, err := newDialect(dbType)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 连接初始化（如SQLite PRAGMA）
	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("配置数据库连接失败: %w", err)
		}
	}

	// 初始化表结构
	for _, stmt := range dialect.Schema() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("初始化表结构失败: %w", err)
		}
	}

	return NewRepositories(db), nil
}

// NewRepositories 在已有连接上装配Repository集合（测试使用）
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Workflows:     storage.NewWorkflowRepo(db),
		Tasks:         storage.NewTaskRepo(db),
		History:       storage.NewHistoryRepo(db),
		Notifications: storage.NewNotificationRepo(db),
		db:            db,
	}
}
