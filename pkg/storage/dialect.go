package storage

// Dialect 数据库方言接口（对外导出）
// 各数据库方言负责自己的DDL与连接配置，Repository实现与方言无关
type Dialect interface {
	// Name 方言名称（sqlite/mysql/postgres）
	Name() string
	// DriverName sql驱动注册名
	DriverName() string
	// Schema 建表DDL语句列表
	Schema() []string
	// ConfigureDB 连接初始化SQL（如SQLite PRAGMA）
	ConfigureDB() []string
}
