package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers ledger routes. Book and Unbook pass through limiter.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, limiter gin.HandlerFunc) {
	bookings := g.Group("/bookings")
	bookings.Use(authMiddleware)
	{
		bookings.GET("", h.List)
		bookings.GET("/:id", h.Get)
		bookings.POST("/:id/unbook", limiter, h.Unbook)
		bookings.POST("/unbook", limiter, h.UnbookLine)
	}

	g.POST("/resources/:id/book", authMiddleware, limiter, h.Book)
	g.GET("/events/:id/resources", authMiddleware, h.EventResources)
}
