package rewards

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/roadwatch/internal/middleware"
)

func RegisterRoutes(router *gin.RouterGroup, svc *Service, authMiddleware gin.HandlerFunc) {
	handler := NewHandler(svc)

	rewards := router.Group("/rewards")
	rewards.Use(authMiddleware)
	{
		rewards.GET("", handler.ListRewards)
		rewards.GET("/balance", handler.GetBalance)
		rewards.POST("/redeem", handler.Redeem)
	}

	adminRewards := router.Group("/admin/rewards")
	adminRewards.Use(authMiddleware, middleware.RequireAdmin())
	{
		adminRewards.PATCH("/:id/complete", handler.CompleteReward)
	}
}
