package workflow

import "errors"

// 引擎错误分类（对外导出）
// 校验类错误在任何写入前被拒绝；冲突类错误可通过重读重试恢复；
// 持久化错误包装底层驱动错误并中止当前阶段
var (
	// ErrIllegalTransition 非法状态转换（校验类，写入前拒绝）
	ErrIllegalTransition = errors.New("illegal task status transition")
	// ErrValidation 缺少必填字段（校验类，写入前拒绝）
	ErrValidation = errors.New("validation failed")
	// ErrConflict 乐观锁冲突（任务状态在写入时已被并发修改）
	ErrConflict = errors.New("task status conflict")
	// ErrTaskNotFound 任务不存在
	ErrTaskNotFound = errors.New("task not found")
)
