package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz"
	"github.com/DevRickLin/feishu-daycare-bot/internal/conf"
	"github.com/DevRickLin/feishu-daycare-bot/internal/data"
	"github.com/DevRickLin/feishu-daycare-bot/internal/service"
	"github.com/DevRickLin/feishu-daycare-bot/mcpserver"
)

// daycare-mcp serves the attendance tools over stdio for one configured
// user. Stdout carries the protocol, so everything else logs to stderr.
func main() {
	envErr := godotenv.Load()
	conf.SetupLogging(conf.Getenv("DEBUG") == "true")
	if envErr != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	if err := cfg.Daycare.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}
	if cfg.MCP.UserID == "" {
		slog.Error("invalid config", "err", &conf.ConfigError{Field: "MCP_USER_ID", Message: "required"})
		os.Exit(1)
	}

	repos, err := data.NewRepositories(nil, cfg.Daycare)
	if err != nil {
		slog.Error("failed to create repositories", "err", err)
		os.Exit(1)
	}
	// Tool results carry no images, so photos stay disabled
	usecases := biz.NewUsecases(cfg.Daycare.Directory(), repos.Portal, nil, cfg.Photo.ToPhotoConfig(), cfg.Daycare.AbsentNote)

	server := mcpserver.NewServer(usecases.Presence, service.NewRenderer(cfg.Messages), cfg.MCP.UserID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("daycare MCP server starting", "user", cfg.MCP.UserID)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("MCP server error", "err", err)
		os.Exit(1)
	}
}
