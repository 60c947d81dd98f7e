package reports

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/roadwatch/internal/middleware"
)

// RegisterRoutes registers the draft, report and moderation routes. submitLimit
// guards both submit endpoints.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, admin *AdminHandler, authMiddleware, submitLimit gin.HandlerFunc) {
	drafts := router.Group("/drafts")
	drafts.Use(authMiddleware)
	{
		drafts.POST("", handler.CreateDraft)
		drafts.GET("/:id", handler.GetDraft)
		drafts.DELETE("/:id", handler.DeleteDraft)
		drafts.PATCH("/:id", handler.UpdateDraft)
		drafts.PUT("/:id/image", handler.AttachImage)
		drafts.PUT("/:id/location", handler.CaptureLocation)
		drafts.POST("/:id/submit", submitLimit, handler.SubmitDraft)
	}

	reports := router.Group("/reports")
	reports.Use(authMiddleware)
	{
		reports.POST("", submitLimit, handler.CreateReport)
		reports.GET("", handler.ListReports)
		reports.GET("/:id", handler.GetReport)
		reports.POST("/:id/comments", handler.AddComment)
		reports.POST("/:id/vote", handler.Vote)
	}

	moderation := router.Group("/admin/reports")
	moderation.Use(authMiddleware, middleware.RequireAdmin())
	{
		moderation.GET("", admin.ListReports)
		moderation.PATCH("/:id/status", admin.UpdateStatus)
	}
}
