package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/shareway-go/docs"
	"github.com/kirinyoku/shareway-go/internal/app"
	"github.com/kirinyoku/shareway-go/internal/config"
)

// @title ShareWay API
// @version 1.0
// @description Ride sharing: drivers offer rides, riders request seats, drivers approve.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
