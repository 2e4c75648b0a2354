package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz"
	"github.com/DevRickLin/feishu-daycare-bot/internal/conf"
	"github.com/DevRickLin/feishu-daycare-bot/internal/data"
	"github.com/DevRickLin/feishu-daycare-bot/internal/infra/feishu"
	"github.com/DevRickLin/feishu-daycare-bot/internal/server"
	"github.com/DevRickLin/feishu-daycare-bot/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file
	envErr := godotenv.Load()
	conf.SetupLogging(conf.Getenv("DEBUG") == "true")
	if envErr != nil {
		slog.Info("no .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	// Initialize clients
	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
	feishuClient.SetEventKeys(cfg.Feishu.VerificationToken, cfg.Feishu.EncryptKey)

	// Initialize repository layer
	repos, err := data.NewRepositories(feishuClient, cfg.Daycare)
	if err != nil {
		slog.Error("failed to create repositories", "err", err)
		os.Exit(1)
	}

	// Initialize usecase layer
	directory := cfg.Daycare.Directory()
	usecases := biz.NewUsecases(directory, repos.Portal, repos.Message, cfg.Photo.ToPhotoConfig(), cfg.Daycare.AbsentNote)

	// Initialize service layer
	daycareSvc := service.NewDaycareService(usecases.Presence, repos.Message, service.NewRenderer(cfg.Messages))

	// Initialize server
	srv := server.NewFeishuServer(feishuClient, daycareSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting daycare bot", "users", directory.Users(), "accounts", len(cfg.Daycare.Accounts))

	errCh := make(chan error, 1)
	var httpSrv *http.Server
	if cfg.Feishu.WebhookAddr != "" {
		httpSrv = server.NewWebhookServer(cfg.Feishu.WebhookAddr, feishuClient.EventDispatcher())
		go func() {
			slog.Info("webhook server listening", "addr", cfg.Feishu.WebhookAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	} else {
		go func() {
			errCh <- srv.Start(ctx)
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("webhook server shutdown", "err", err)
		}
	}

	// Let in-flight clicks finish editing their cards
	done := make(chan struct{})
	go func() {
		daycareSvc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		slog.Warn("shutdown timed out with clicks in flight")
	}
}
