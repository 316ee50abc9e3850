package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/bothive/internal/config"
	"github.com/zhouzirui/bothive/internal/handler"
	"github.com/zhouzirui/bothive/internal/handler/webhook"
	"github.com/zhouzirui/bothive/internal/model/profile"
	"github.com/zhouzirui/bothive/internal/service/ai"
	"github.com/zhouzirui/bothive/internal/service/chat"
	"github.com/zhouzirui/bothive/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load(os.Getenv("BOTHIVE_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logger.Setup(cfg.Log, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	if envErr != nil {
		log.Warn().Err(envErr).Msg("no .env file, continuing with system environment variables only")
	}

	p := profile.FromConfig(cfg)
	chatService := chat.NewService()

	var responder webhook.Responder = ai.NewFallback(p)
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, p, cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize AI service, using fallback replies")
		} else {
			responder = aiService
			log.Info().Str("model", cfg.AI.Model).Msg("AI service initialized")
		}
	} else {
		log.Info().Msg("ark credentials not configured, using fallback replies")
	}

	router := handler.NewRouter(p, chatService, responder, webhook.Options{
		Path:         cfg.Server.WebhookPath,
		RatePerSec:   cfg.Server.RatePerSec,
		RateBurst:    cfg.Server.RateBurst,
		HistoryLimit: cfg.AI.HistoryLimit,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Str("webhook", serverCfg.WebhookPath).Msg("BotHive webhook listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
