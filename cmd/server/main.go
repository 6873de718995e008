package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
}

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fx.New(
		InfraModule,
		AppModule,
		fx.Invoke(func(*http.Server) {}),
		fx.NopLogger,
	)

	if err := app.Start(ctx); err != nil {
		slog.Error("failed to start application", "error", err.Error())
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("application forced to shutdown", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
