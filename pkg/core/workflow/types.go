// Package workflow 定义审批工作流引擎的核心领域模型
package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssignmentRule 步骤分配规则枚举
type AssignmentRule string

const (
	// AssignUser 固定用户分配
	AssignUser AssignmentRule = "user"
	// AssignRole 角色分配
	AssignRole AssignmentRule = "role"
	// AssignDynamic 动态分配（由外部触发器决定）
	AssignDynamic AssignmentRule = "dynamic"
)

// Workflow 工作流定义（对外导出）
// 绑定到一类实体（如information_object）的命名审批流程，处理批次内只读
type Workflow struct {
	ID              string
	Name            string
	ScopeType       string // 适用的实体类型
	Active          bool
	AutoArchiveDays *int // 终态任务保留天数（nil表示仅受全局保留策略约束）
	CreatedAt       time.Time
}

// WorkflowStep 工作流步骤（对外导出）
// 属于且仅属于一个Workflow，按Position排序
type WorkflowStep struct {
	ID               string
	WorkflowID       string
	Position         int
	AssignmentRule   AssignmentRule
	Assignee         string // 规则为user时的用户ID，role时的角色名
	DueOffsetDays    int    // 到期天数偏移（从任务创建起算）
	EscalationUserID string // 超期升级目标用户ID（空表示该步骤不参与升级）
}

// EntityRef 多态实体引用（对外导出）
// (object_type, object_id)标记引用，不是外键；引用存在性由创建方负责校验
type EntityRef struct {
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
}

// IsZero 检查引用是否为空
func (r EntityRef) IsZero() bool {
	return r.ObjectType == "" && r.ObjectID == ""
}

// String 引用的展示形式
func (r EntityRef) String() string {
	return fmt.Sprintf("%s/%s", r.ObjectType, r.ObjectID)
}

// WorkflowTask 工作流任务（对外导出）
// 一个步骤作用于一个实体的可变工作单元
type WorkflowTask struct {
	ID          string
	WorkflowID  string
	StepID      string
	Entity      EntityRef
	AssignedTo  string
	Status      TaskStatus
	Priority    int
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	EscalatedAt *time.Time
	DecidedAt   *time.Time // 进入终态的时间
}

// NewTask 创建工作流任务（对外导出）
// 到期日由步骤的偏移天数计算；偏移为0表示无到期日
func NewTask(wf *Workflow, step *WorkflowStep, entity EntityRef, assignee string, priority int) *WorkflowTask {
	now := time.Now()
	task := &WorkflowTask{
		ID:         uuid.New().String(),
		WorkflowID: wf.ID,
		StepID:     step.ID,
		Entity:     entity,
		AssignedTo: assignee,
		Status:     StatusPending,
		Priority:   priority,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if step.DueOffsetDays > 0 {
		due := now.AddDate(0, 0, step.DueOffsetDays)
		task.DueDate = &due
	}
	return task
}

// IsOverdue 检查任务在指定时刻是否超期
func (t *WorkflowTask) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status.IsTerminal() || t.Status == StatusEscalated {
		return false
	}
	return t.DueDate.Before(now)
}

// 历史记录动作常量
const (
	// ActionCreated 任务创建
	ActionCreated = "created"
	// ActionTransition 状态转换（人工或API）
	ActionTransition = "transition"
	// ActionEscalated 超期自动升级
	ActionEscalated = "escalated"
)

// EscalationComment 自动升级的固定历史备注
const EscalationComment = "Automatically escalated due to overdue deadline"

// WorkflowHistory 工作流历史记录（对外导出）
// 只追加的审计日志，每次状态转换写入一行，写入后不再修改
type WorkflowHistory struct {
	ID          string
	TaskID      string
	WorkflowID  string
	StepID      string
	Entity      EntityRef
	Action      string
	FromStatus  TaskStatus
	ToStatus    TaskStatus
	PerformedBy Actor
	Comment     string
	CreatedAt   time.Time
}

// WorkflowNotification 工作流通知（对外导出）
// 排队的出站消息，由Dispatcher恰好消费一次（成功或终态失败）
type WorkflowNotification struct {
	ID          string
	TaskID      string
	Status      NotificationStatus
	Target      string // 收件目标（用户ID或地址）
	TemplateRef string // 消息模板引用
	LastError   string // 最近一次发送失败原因
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewNotification 创建待发送通知
func NewNotification(taskID, target, templateRef string) *WorkflowNotification {
	now := time.Now()
	return &WorkflowNotification{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		Status:      NotificationPending,
		Target:      target,
		TemplateRef: templateRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
