package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers event routes. Creating events needs organizerMiddleware.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, organizerMiddleware, listCache gin.HandlerFunc) {
	group := g.Group("/events")

	group.Use(authMiddleware)
	{
		group.GET("", listCache, h.List)
		group.GET("/:id", h.Get)
		group.POST("", organizerMiddleware, h.Create)
	}
}
