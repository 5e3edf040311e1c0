package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/backroomlabs/backroom-engine/internal/config"
	"github.com/backroomlabs/backroom-engine/internal/engine"
	"github.com/backroomlabs/backroom-engine/internal/handlers"
	"github.com/backroomlabs/backroom-engine/internal/intro"
	"github.com/backroomlabs/backroom-engine/internal/levels"
	"github.com/backroomlabs/backroom-engine/internal/logger"
	"github.com/backroomlabs/backroom-engine/internal/middleware"
	"github.com/backroomlabs/backroom-engine/internal/services"
	"github.com/backroomlabs/backroom-engine/internal/session"
	"github.com/backroomlabs/backroom-engine/pkg/dice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Backroom Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	var llmService services.LLMService
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Error("Anthropic API key is required when using anthropic provider")
			os.Exit(1)
		}
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
		log.Info("Using Anthropic LLM provider")
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Error("OpenAI API key is required when using openai provider")
			os.Exit(1)
		}
		llmService = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ModelName, log)
		log.Info("Using OpenAI LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"anthropic", "openai"})
		os.Exit(1)
	}

	cache := services.NewRedisService(cfg.RedisURL, log)
	cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cacheCancel()
	if err := cache.Ping(cacheCtx); err != nil {
		log.Error("Failed to connect to cache", "error", err)
		os.Exit(1)
	}
	log.Info("Cache connection established successfully")

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	var roller dice.Source
	if cfg.DiceSeed != 0 {
		log.Warn("Dice RNG pinned to fixed seed", "seed", cfg.DiceSeed)
		roller = dice.NewWithSeed(cfg.DiceSeed)
	} else {
		roller = dice.New()
	}

	sessions := session.NewStore(cache, cfg.SessionTTL, log)
	intros := intro.NewCache(cache, llmService, cfg.IntroTTL, log)
	levelSource := levels.NewFSLevels(cfg.DataDir, log)

	eng := engine.New(llmService, sessions, intros, levelSource, roller, engine.Config{
		MaxTurnLoops: cfg.MaxTurnLoops,
		TurnMinutes:  cfg.TurnMinutes,
		DefaultLevel: cfg.DefaultLevel,
		LLMTimeout:   cfg.LLMTimeout,
	}, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(cache, cfg.CacheTimeout, log))
	mux.Handle("/v1/turn", handlers.NewTurnHandler(eng, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the turn endpoint streams and manages its
		// own deadlines.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := cache.Close(); err != nil {
		log.Error("Error closing cache connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
