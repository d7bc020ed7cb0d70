package workflow

// TaskStatus 任务状态枚举（对外导出）
type TaskStatus string

const (
	// StatusPending 待处理状态（初始状态）
	StatusPending TaskStatus = "pending"
	// StatusClaimed 已认领状态（审批人已接手）
	StatusClaimed TaskStatus = "claimed"
	// StatusInProgress 处理中状态（审批进行中）
	StatusInProgress TaskStatus = "in_progress"
	// StatusApproved 已批准状态（终态）
	StatusApproved TaskStatus = "approved"
	// StatusRejected 已拒绝状态（终态）
	StatusRejected TaskStatus = "rejected"
	// StatusCancelled 已取消状态（终态）
	StatusCancelled TaskStatus = "cancelled"
	// StatusEscalated 已升级状态（超期自动升级，可重新进入pending）
	StatusEscalated TaskStatus = "escalated"
)

// AllStatuses 所有合法状态列表
var AllStatuses = []TaskStatus{
	StatusPending,
	StatusClaimed,
	StatusInProgress,
	StatusApproved,
	StatusRejected,
	StatusCancelled,
	StatusEscalated,
}

// IsValid 检查状态是否有效（对外导出）
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending,
		StatusClaimed,
		StatusInProgress,
		StatusApproved,
		StatusRejected,
		StatusCancelled,
		StatusEscalated:
		return true
	default:
		return false
	}
}

// IsTerminal 检查是否为终态（对外导出）
// 终态任务不再参与任何转换，仅可被归档器删除
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo 检查是否可以转换到目标状态（对外导出）
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	switch s {
	case StatusPending:
		// Pending可以被认领、取消或升级
		return target == StatusClaimed || target == StatusCancelled || target == StatusEscalated
	case StatusClaimed:
		// Claimed可以开始处理、取消或升级
		return target == StatusInProgress || target == StatusCancelled || target == StatusEscalated
	case StatusInProgress:
		// InProgress可以批准、拒绝、取消或升级
		return target == StatusApproved || target == StatusRejected ||
			target == StatusCancelled || target == StatusEscalated
	case StatusEscalated:
		// Escalated可以为新审批人重新进入Pending，或被取消
		// 不允许回退到任何终态
		return target == StatusPending || target == StatusCancelled
	case StatusApproved, StatusRejected, StatusCancelled:
		// 终态不能转换
		return false
	default:
		return false
	}
}

// TerminalStatuses 返回所有终态列表
func TerminalStatuses() []TaskStatus {
	return []TaskStatus{StatusApproved, StatusRejected, StatusCancelled}
}

// NotificationStatus 通知状态枚举（对外导出）
type NotificationStatus string

const (
	// NotificationPending 待发送状态（初始状态）
	NotificationPending NotificationStatus = "pending"
	// NotificationSent 已发送状态（终态）
	NotificationSent NotificationStatus = "sent"
	// NotificationFailed 发送失败状态（是否重试由配置决定）
	NotificationFailed NotificationStatus = "failed"
)

// IsValid 检查通知状态是否有效
func (s NotificationStatus) IsValid() bool {
	switch s {
	case NotificationPending, NotificationSent, NotificationFailed:
		return true
	default:
		return false
	}
}
