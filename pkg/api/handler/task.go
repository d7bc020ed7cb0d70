package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/workflow-engine/pkg/api/dto"
	"github.com/LENAX/workflow-engine/pkg/core/engine"
	"github.com/LENAX/workflow-engine/pkg/core/workflow"
	"github.com/LENAX/workflow-engine/pkg/storage"
)

// TaskHandler 任务API处理器
// 只读查询加一个人工转换入口（UI协作方的边界）
type TaskHandler struct {
	engine *engine.Engine
}

// NewTaskHandler 创建TaskHandler
func NewTaskHandler(eng *engine.Engine) *TaskHandler {
	return &TaskHandler{engine: eng}
}

// List 列出任务
// GET /api/v1/tasks?status=&user=&workflow=&overdue=&limit=
func (h *TaskHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := storage.TaskFilter{
		AssignedTo: c.Query("user"),
		WorkflowID: c.Query("workflow"),
		Limit:      100,
	}
	if status := c.Query("status"); status != "" {
		s := workflow.TaskStatus(status)
		if !s.IsValid() {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("未知状态: %s", status)))
			return
		}
		filter.Statuses = []workflow.TaskStatus{s}
	}
	if c.Query("overdue") == "true" {
		now := time.Now()
		filter.OverdueAt = &now
	}
	if limit, err := parseIntQuery(c, "limit"); err == nil && limit > 0 {
		filter.Limit = limit
	}

	tasks, err := h.engine.Repos().Tasks.List(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询任务失败: %v", err)))
		return
	}

	items := make([]dto.TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, taskToSummary(t))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.TaskSummary]{
		Total: len(items),
		Items: items,
	}))
}

// Get 获取任务详情
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	task, err := h.engine.Repos().Tasks.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询任务失败: %v", err)))
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "任务不存在"))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(taskToSummary(task)))
}

// History 获取任务历史
// GET /api/v1/tasks/:id/history
func (h *TaskHandler) History(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	records, err := h.engine.Repos().History.ListByTask(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询历史失败: %v", err)))
		return
	}

	items := make([]dto.HistoryEntry, 0, len(records))
	for _, r := range records {
		items = append(items, dto.HistoryEntry{
			ID:         r.ID,
			Action:     r.Action,
			FromStatus: string(r.FromStatus),
			ToStatus:   string(r.ToStatus),
			Actor:      r.PerformedBy.String(),
			Comment:    r.Comment,
			CreatedAt:  r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ListResponse[dto.HistoryEntry]{
		Total: len(items),
		Items: items,
	}))
}

// Transition 人工状态转换
// POST /api/v1/tasks/:id/transition
func (h *TaskHandler) Transition(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求参数错误: %v", err)))
		return
	}

	task, err := h.engine.Machine().Transition(ctx, id, workflow.TaskStatus(req.Status),
		workflow.HumanActor(req.UserID), req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrTaskNotFound):
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "任务不存在"))
		case errors.Is(err, workflow.ErrIllegalTransition), errors.Is(err, workflow.ErrValidation):
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		case errors.Is(err, workflow.ErrConflict):
			c.JSON(http.StatusConflict, dto.NewErrorResponse(409, "任务状态已被并发修改，请重试"))
		default:
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("状态转换失败: %v", err)))
		}
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(taskToSummary(task)))
}

// Summary 任务状态统计
// GET /api/v1/tasks/summary
func (h *TaskHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.engine.Repos().Tasks.CountByStatus(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("统计任务失败: %v", err)))
		return
	}

	now := time.Now()
	overdue, err := h.engine.Repos().Tasks.List(ctx, storage.TaskFilter{
		Statuses:  []workflow.TaskStatus{workflow.StatusPending, workflow.StatusClaimed, workflow.StatusInProgress},
		OverdueAt: &now,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("统计超期任务失败: %v", err)))
		return
	}

	summary := dto.StatusSummary{
		Counts:  make(map[string]int, len(counts)),
		Overdue: len(overdue),
	}
	for status, count := range counts {
		summary.Counts[string(status)] = count
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(summary))
}

// taskToSummary 业务实体转DTO
func taskToSummary(t *workflow.WorkflowTask) dto.TaskSummary {
	return dto.TaskSummary{
		ID:          t.ID,
		WorkflowID:  t.WorkflowID,
		StepID:      t.StepID,
		ObjectType:  t.Entity.ObjectType,
		ObjectID:    t.Entity.ObjectID,
		AssignedTo:  t.AssignedTo,
		Status:      string(t.Status),
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		EscalatedAt: t.EscalatedAt,
		DecidedAt:   t.DecidedAt,
	}
}

// parseIntQuery 解析整数查询参数
func parseIntQuery(c *gin.Context, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, fmt.Errorf("empty")
	}
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return 0, err
	}
	return n, nil
}
