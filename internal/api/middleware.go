package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/evently-backend/internal/auth"
)

// RequireAdmin ensures the authenticated user is an admin.
// It MUST be used after auth.AuthRequired middleware.
func RequireAdmin() gin.HandlerFunc {
	return auth.RequireRole(auth.RoleAdmin)
}

// RequireOrganizer lets club accounts and admins through.
// It MUST be used after auth.AuthRequired middleware.
func RequireOrganizer() gin.HandlerFunc {
	return auth.RequireRole(auth.RoleClub, auth.RoleAdmin)
}

// HealthCheck checks one backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// Health reports 200 when every check passes and 503 otherwise.
func Health(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				slog.WarnContext(ctx, "health check failed", "check", hc.Name, "error", err.Error())
				results[hc.Name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[hc.Name] = "up"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
