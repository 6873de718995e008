package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/nekogravitycat/evently-backend/internal/app"
	"github.com/nekogravitycat/evently-backend/internal/config"
	"github.com/nekogravitycat/evently-backend/internal/db"
	"github.com/nekogravitycat/evently-backend/internal/docstore"
	"github.com/nekogravitycat/evently-backend/internal/notify"
	"github.com/nekogravitycat/evently-backend/internal/pkg/logging"
	"github.com/nekogravitycat/evently-backend/internal/pkg/ratelimit"
)

const shutdownTimeout = 5 * time.Second

var InfraModule = fx.Module("infra",
	fx.Provide(
		config.Load,
		newLogger,
		newPool,
		newMongo,
		newRedis,
		newPublisher,
		newLimiter,
	),
)

var AppModule = fx.Module("app",
	fx.Provide(
		newContainer,
		newHTTPServer,
	),
)

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Log.Level, cfg.IsProduction())
}

func newPool(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database schema applied")
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

// newMongo returns nil when no MongoDB URI is configured.
func newMongo(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*mongo.Database, error) {
	if cfg.Mongo.URI == "" {
		return nil, nil
	}

	ctx := context.Background()
	client, database, err := docstore.Connect(ctx, docstore.Config{
		URI:         cfg.Mongo.URI,
		FallbackURI: cfg.Mongo.FallbackURI,
		DBName:      cfg.Mongo.DBName,
	})
	if err != nil {
		return nil, err
	}
	if err := docstore.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info("connected to mongodb", "database", database.Name())

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})
	return database, nil
}

// newRedis returns nil when caching is disabled.
func newRedis(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured, response cache disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Warn("redis ping failed, cache will miss until it recovers", "error", err.Error())
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}

func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (notify.Publisher, error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("rabbitmq not configured, notifications disabled")
		return notify.NopPublisher{}, nil
	}

	amqpPub, err := notify.DialAMQP(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	async := notify.NewAsync(amqpPub, cfg.RabbitMQ.PublishTimeout, logger)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := async.Wait(ctx); err != nil {
				logger.Warn("pending notifications dropped", "error", err.Error())
			}
			return amqpPub.Close()
		},
	})
	return async, nil
}

func newLimiter(lc fx.Lifecycle, cfg *config.Config) *ratelimit.Limiter {
	l := ratelimit.New(ratelimit.Config{
		RPS:   cfg.RateLimit.RPS,
		Burst: cfg.RateLimit.Burst,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			l.Close()
			return nil
		},
	})
	return l
}

type containerParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Pool      *pgxpool.Pool
	Mongo     *mongo.Database
	Redis     redis.UniversalClient
	Publisher notify.Publisher
	Limiter   *ratelimit.Limiter
}

func newContainer(p containerParams) *app.Container {
	return app.NewContainer(app.Config{
		IsProduction: p.Config.IsProduction(),
		ProdOrigins:  p.Config.ProdOrigins,
		Logger:       p.Logger,
		DBPool:       p.Pool,
		MongoDB:      p.Mongo,
		LedgerStore:  p.Config.LedgerStore,
		Redis:        p.Redis,
		CacheTTL:     p.Config.Redis.CacheTTL,
		Publisher:    p.Publisher,
		Limiter:      p.Limiter,
		JWTSecret:    p.Config.JWT.Secret,
		JWTTTL:       p.Config.JWT.AccessTokenTTL,
	})
}

func newHTTPServer(lc fx.Lifecycle, cfg *config.Config, c *app.Container, logger *slog.Logger) *http.Server {
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           c.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Info("server running", "address", cfg.HTTPAddr, "ledger_store", cfg.LedgerStore)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "error", err.Error())
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return server.Shutdown(ctx)
		},
	})
	return server
}
