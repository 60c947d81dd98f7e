package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the auth routes. signInLimit guards sign-up and sign-in.
func RegisterRoutes(router *gin.RouterGroup, svc *Service, authMiddleware, signInLimit gin.HandlerFunc) {
	handler := NewHandler(svc)

	auth := router.Group("/auth")
	{
		auth.POST("/signup", signInLimit, handler.SignUp)
		auth.POST("/signin", signInLimit, handler.SignIn)
		auth.POST("/signout", authMiddleware, handler.SignOut)
		auth.GET("/me", authMiddleware, handler.Me)
	}
}
