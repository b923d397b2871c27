package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/llm-chess-arena/internal/archive"
	"github.com/kapu/llm-chess-arena/internal/config"
	"github.com/kapu/llm-chess-arena/internal/eval"
	"github.com/kapu/llm-chess-arena/internal/httpapi"
	"github.com/kapu/llm-chess-arena/internal/llm"
	"github.com/kapu/llm-chess-arena/internal/obslog"
	"github.com/kapu/llm-chess-arena/internal/session"
	"github.com/kapu/llm-chess-arena/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	completer := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey,
		llm.WithTimeout(time.Duration(cfg.LLMTimeoutSec)*time.Second),
	)

	engine := eval.NewEngine(
		cfg.StockfishPath,
		cfg.EvalDepth,
		time.Duration(cfg.EvalTimeoutMil)*time.Millisecond,
		obslog.Named("eval"),
	)
	defer engine.Close()

	var snapshots *store.Store
	if cfg.RedisURL != "" {
		snapshots, err = store.Open(context.Background(), cfg.RedisURL,
			time.Duration(cfg.SessionTTLSec)*time.Second)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer snapshots.Close()
	} else {
		logger.Warn("REDIS_URL not set, session snapshots will not survive restarts")
	}

	var repo archive.Repository
	if cfg.DatabaseURL != "" {
		pg, err := archive.NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
		repo = pg
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory game archive")
		repo = archive.NewMemRepository()
	}
	defer repo.Close()

	manager := session.NewManager(func(id string) *session.Session {
		return session.New(session.Options{
			ID:         id,
			WhiteModel: cfg.WhiteModel,
			BlackModel: cfg.BlackModel,
			Protocol:   cfg.MoveProtocol,
			MaxTokens:  cfg.LLMMaxTokens,
			Completer:  completer,
			Engine:     engine,
			Logger:     obslog.Named("session"),
		})
	})

	server := httpapi.NewServer(manager, snapshots, repo, obslog.Named("http"))

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen(cfg.ListenAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Close(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}
