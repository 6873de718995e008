package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers resource catalog routes. Mutations require adminMiddleware.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware, listCache gin.HandlerFunc) {
	group := g.Group("/resources")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", listCache, h.List) // List resources
		group.GET("/:id", h.Get)         // Get resource details
	}

	// === Admin Routes ===
	{
		group.POST("", adminMiddleware, h.Create)
		group.PATCH("/:id", adminMiddleware, h.Update)
		group.DELETE("/:id", adminMiddleware, h.Delete)
	}
}
