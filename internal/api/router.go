package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/evently-backend/internal/booking/http"
	"github.com/nekogravitycat/evently-backend/internal/event"
	eventHttp "github.com/nekogravitycat/evently-backend/internal/event/http"
	"github.com/nekogravitycat/evently-backend/internal/pkg/cache"
	"github.com/nekogravitycat/evently-backend/internal/pkg/logging"
	"github.com/nekogravitycat/evently-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/evently-backend/internal/registration"
	regHttp "github.com/nekogravitycat/evently-backend/internal/registration/http"
	"github.com/nekogravitycat/evently-backend/internal/resource"
	resHttp "github.com/nekogravitycat/evently-backend/internal/resource/http"
)

// Config holds the dependencies required to build the router.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *slog.Logger
	JWTManager   *auth.JWTManager

	// Redis is optional. Without it list responses are not cached.
	Redis    redis.UniversalClient
	CacheTTL time.Duration
	// Limiter is optional. Without it mutations are not rate limited.
	Limiter *ratelimit.Limiter
	Health  []HealthCheck

	ResService          resource.Service
	EventService        event.Service
	BookingService      booking.Service
	RegistrationService registration.Service
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()

	// Global Middleware:
	// - Logging: structured request log with a request id.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logging.Middleware(logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // Web client
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader, cache.StatusHeader}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", Health(cfg.Health...))

	// authMiddleware: Validates if the request contains a valid identity token.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	adminMiddleware := RequireAdmin()
	organizerMiddleware := RequireOrganizer()

	limiter := func(c *gin.Context) { c.Next() }
	if cfg.Limiter != nil {
		limiter = cfg.Limiter.Middleware(ratelimit.ByUserOrIP)
	}

	invalidator := cache.NewInvalidator(cfg.Redis)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	resHandler := resHttp.NewHandler(cfg.ResService, invalidator)
	eventHandler := eventHttp.NewHandler(cfg.EventService, invalidator)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, invalidator)
	regHandler := regHttp.NewHandler(cfg.RegistrationService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		resHttp.RegisterRoutes(v1, resHandler, authMiddleware, adminMiddleware,
			cache.ResponseCache(cfg.Redis, cache.NamespaceResources, cfg.CacheTTL))
		eventHttp.RegisterRoutes(v1, eventHandler, authMiddleware, organizerMiddleware,
			cache.ResponseCache(cfg.Redis, cache.NamespaceEvents, cfg.CacheTTL))
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, limiter)
		regHttp.RegisterRoutes(v1, regHandler, authMiddleware, limiter)
	}

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
