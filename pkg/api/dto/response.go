// Package dto 定义API请求与响应结构
package dto

import "time"

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// TaskSummary 任务摘要信息
type TaskSummary struct {
	ID          string     `json:"id"`
	WorkflowID  string     `json:"workflow_id"`
	StepID      string     `json:"step_id"`
	ObjectType  string     `json:"object_type"`
	ObjectID    string     `json:"object_id"`
	AssignedTo  string     `json:"assigned_to"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// HistoryEntry 历史记录条目
type HistoryEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusSummary 任务状态统计
type StatusSummary struct {
	Counts  map[string]int `json:"counts"`
	Overdue int            `json:"overdue"`
}
