// Package api 提供HTTP API服务
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/workflow-engine/pkg/api/handler"
	"github.com/LENAX/workflow-engine/pkg/api/middleware"
	"github.com/LENAX/workflow-engine/pkg/core/engine"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, version string) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	taskHandler := handler.NewTaskHandler(eng)
	healthHandler := handler.NewHealthHandler(version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", taskHandler.List)
			tasks.GET("/summary", taskHandler.Summary)
			tasks.GET("/:id", taskHandler.Get)
			tasks.GET("/:id/history", taskHandler.History)
			tasks.POST("/:id/transition", taskHandler.Transition)
		}
	}

	return router
}
