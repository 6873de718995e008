package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, limiter gin.HandlerFunc) {
	mine := g.Group("/events/:id/registrations")
	mine.Use(authMiddleware)
	{
		mine.POST("", limiter, h.Register)
		mine.GET("/me", h.Status)
		mine.DELETE("/me", limiter, h.Cancel)
	}

	g.GET("/registrations/me", authMiddleware, h.ListMine)
}
