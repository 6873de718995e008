package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nekogravitycat/evently-backend/internal/api"
	"github.com/nekogravitycat/evently-backend/internal/auth"
	"github.com/nekogravitycat/evently-backend/internal/booking"
	"github.com/nekogravitycat/evently-backend/internal/config"
	"github.com/nekogravitycat/evently-backend/internal/event"
	"github.com/nekogravitycat/evently-backend/internal/notify"
	"github.com/nekogravitycat/evently-backend/internal/pkg/ratelimit"
	"github.com/nekogravitycat/evently-backend/internal/registration"
	"github.com/nekogravitycat/evently-backend/internal/resource"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *slog.Logger
	DBPool       *pgxpool.Pool
	// MongoDB backs resources and bookings when LedgerStore is "mongo".
	MongoDB     *mongo.Database
	LedgerStore string
	Redis       redis.UniversalClient
	CacheTTL    time.Duration
	Publisher   notify.Publisher
	Limiter     *ratelimit.Limiter
	JWTSecret   string
	JWTTTL      time.Duration
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}

	// Ledger stores
	var (
		resRepo     resource.Repository
		bookingRepo booking.Repository
	)
	if cfg.LedgerStore == config.LedgerStoreMongo && cfg.MongoDB != nil {
		resRepo = resource.NewMongoRepository(cfg.MongoDB)
		bookingRepo = booking.NewMongoRepository(cfg.MongoDB)
	} else {
		resRepo = resource.NewPgxRepository(cfg.DBPool)
		bookingRepo = booking.NewPgxRepository(cfg.DBPool)
	}

	// Resource Module
	resService := resource.NewService(resRepo)

	// Event Module
	eventRepo := event.NewPgxRepository(cfg.DBPool)
	eventService := event.NewService(eventRepo)

	// Booking Module
	bookingService := booking.NewService(bookingRepo, resService, eventService, publisher)

	// Registration Module
	regRepo := registration.NewPgxRepository(cfg.DBPool)
	regService := registration.NewService(regRepo, eventService, publisher)

	health := []api.HealthCheck{{Name: "postgres", Check: cfg.DBPool.Ping}}
	if cfg.MongoDB != nil {
		health = append(health, api.HealthCheck{Name: "mongodb", Check: func(ctx context.Context) error {
			return cfg.MongoDB.Client().Ping(ctx, nil)
		}})
	}
	if cfg.Redis != nil {
		health = append(health, api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return cfg.Redis.Ping(ctx).Err()
		}})
	}

	// API Router Config
	routerParams := api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              cfg.Logger,
		JWTManager:          jwtManager,
		Redis:               cfg.Redis,
		CacheTTL:            cfg.CacheTTL,
		Limiter:             cfg.Limiter,
		Health:              health,
		ResService:          resService,
		EventService:        eventService,
		BookingService:      bookingService,
		RegistrationService: regService,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
