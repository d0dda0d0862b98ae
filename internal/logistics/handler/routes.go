package handler

import (
	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册业务路由。public 不需要登录，protected 已挂载 JWT 认证
func (h *Handlers) RegisterRoutes(public, protected *gin.RouterGroup) {
	head := middleware.RequireRole(entity.RoleHead)

	auth := public.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
	}

	protected.GET("/auth/me", h.Auth.Me)
	protected.GET("/events", h.SSE.Stream)

	materials := protected.Group("/materials")
	{
		materials.GET("", h.Material.List)
		materials.GET("/:id", h.Material.Get)
		materials.POST("", head, h.Material.Create)
		materials.PUT("/:id", head, h.Material.Update)
	}

	projects := protected.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.POST("", head, h.Project.Create)
		projects.POST("/batch", head, h.Project.CreateBatch)
		projects.GET("/with-materials", h.Project.ListWithMaterials)
		projects.POST("/with-materials", head, h.Project.CreateWithMaterials)
		projects.GET("/:id", h.Project.Get)
		projects.GET("/:id/materials", h.Project.Materials)
		projects.POST("/:id/materials/use", h.Project.UseMaterial)
		projects.GET("/:id/summary", h.Project.Summary)
		projects.GET("/:id/report.xlsx", h.Project.Export)
		projects.GET("/:id/requests", h.Request.ListByProject)
		projects.GET("/:id/requests/pending", h.Request.PendingByProject)
	}

	requests := protected.Group("/requests")
	{
		requests.POST("", h.Request.Create)
		requests.GET("/pending", h.Request.AllPending)
		requests.GET("/:id", h.Request.Get)
		requests.GET("/:id/assignments", h.Request.Assignments)
		requests.POST("/:id/assign", head, h.Request.Assign)
		requests.POST("/:id/deliver", head, h.Request.Deliver)
	}

	deliveries := protected.Group("/deliveries")
	{
		deliveries.POST("", head, h.Delivery.AssignDriver)
		deliveries.GET("/mine", h.Delivery.Mine)
		deliveries.GET("/driver/:driverId", h.Delivery.ByDriver)
		deliveries.GET("/driver/:driverId/history", h.Delivery.History)
		deliveries.GET("/:id", h.Delivery.Get)
		deliveries.PATCH("/:id/status", middleware.RequireRole(entity.RoleDriver, entity.RoleHead), h.Delivery.UpdateStatus)
	}

	users := protected.Group("/users")
	{
		users.GET("/drivers", h.User.Drivers)
		users.GET("", head, h.User.List)
		users.POST("", head, h.User.Register)
		users.POST("/batch", head, h.User.RegisterBatch)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id", head, h.User.Update)
		users.DELETE("/:id", head, h.User.Delete)
	}

	protected.POST("/imports/:kind", head, h.Import.Upload)
	protected.GET("/activity/:entityType/:entityId", h.Activity.List)
}
