// Package handler 实现API处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/workflow-engine/pkg/api/dto"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version string
}

// NewHealthHandler 创建HealthHandler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Health 健康检查
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"status":  "ok",
		"version": h.version,
	}))
}

// Ready 就绪检查
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"status": "ready",
	}))
}
