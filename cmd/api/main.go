package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/zhouzirui/feels/backend/internal/config"
	"github.com/zhouzirui/feels/backend/internal/handler"
	"github.com/zhouzirui/feels/backend/internal/logging"
	"github.com/zhouzirui/feels/backend/internal/model/profile"
	"github.com/zhouzirui/feels/backend/internal/observability"
	"github.com/zhouzirui/feels/backend/internal/service/ai"
	"github.com/zhouzirui/feels/backend/internal/service/chat"
	"github.com/zhouzirui/feels/backend/internal/service/conversation"
	"github.com/zhouzirui/feels/backend/internal/service/processor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "feels backend: %v\n", err)
		os.Exit(1)
	}
}

// run holds the deferred cleanups; main exits only after they have run.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Warn("failed to load .env file, continuing with system environment variables only", zap.Error(envErr))
	}

	metrics := observability.NewMetrics(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)

	profiles := profile.NewMemoryStore(profile.Seed())
	chatService := chat.NewService(profiles, logger.Named("chat"))

	// Initialize AI service
	var (
		aiService *ai.Service
		chatModel model.ChatModel
	)
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI, logger.Named("ai"))
		if err != nil {
			logger.Warn("failed to initialize AI service, continuing without chat", zap.Error(err))
		} else {
			chatModel = aiService.GetChatModel()
			logger.Info("AI service initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		logger.Info("Ark credentials not configured, chat endpoints disabled")
	}

	proc, closePipeline := processor.Bootstrap(ctx, cfg.Pipeline, chatModel, metrics, logger)
	defer func() {
		if err := closePipeline(); err != nil {
			logger.Warn("failed to release emotion backend", zap.Error(err))
		}
	}()
	logger.Info("speech preprocessing pipeline ready",
		zap.String("backend", proc.Classifier().Backend()),
		zap.Bool("classifier_ready", proc.Classifier().Ready()),
		zap.Int("chunk_max_tokens", cfg.Pipeline.ChunkMaxTokens))

	var responder conversation.Responder
	if aiService != nil {
		responder = aiService
	}
	conversations := conversation.NewService(responder, chatService, profiles, proc, metrics, logger.Named("conversation"))

	router := handler.NewRouter(handler.Deps{
		Profiles:      profiles,
		Chats:         chatService,
		Conversations: conversations,
		Processor:     proc,
		Metrics:       metrics,
		Logger:        logger.Named("http"),
	})

	return startServer(ctx, logger, cfg.Server, router)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("feels backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("feels backend stopped")
	return nil
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
