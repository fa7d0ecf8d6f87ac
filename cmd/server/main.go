// server is the campaign scribe HTTP server: transcript summarization,
// character card extraction and the campaign query API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"campaign-scribe/internal/api"
	"campaign-scribe/internal/character"
	"campaign-scribe/internal/config"
	"campaign-scribe/internal/llm"
	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/query"
	"campaign-scribe/internal/storage"
	"campaign-scribe/internal/summarize"
)

func main() {
	addr := flag.String("addr", "", "listen address (overrides configured host:port)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := newClient(cfg)
	cache, err := newCache(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer cache.Close()
	gateway := llm.NewGateway(client, cache, cfg.LLM, logger)

	store, err := storage.NewSQLStore(cfg.Storage, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	deps := api.Deps{
		Pipeline:     summarize.NewPipeline(gateway, cfg.Summarize, logger),
		Cards:        character.NewService(character.NewExtractor(gateway, cfg.Extract.MaxCharacters, logger), store, logger),
		Orchestrator: query.NewOrchestrator(store, cfg.Query, logger),
		Repo:         store,
		Gateway:      gateway,
		Logger:       logger,
	}

	listen := *addr
	if listen == "" {
		listen = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	server := &http.Server{
		Addr:         listen,
		Handler:      api.NewRouter(cfg, deps).Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", listen, "llm_provider", cfg.LLM.Provider, "storage", cfg.Storage.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err.Error())
	}
}

func newClient(cfg *config.Config) llm.Client {
	if cfg.LLM.Provider == "mock" {
		return llm.NewMockClient()
	}
	return llm.NewOllamaClient(cfg.LLM)
}

func newCache(ctx context.Context, cfg *config.Config) (llm.ResponseCache, error) {
	if cfg.Cache.Backend == "redis" {
		return llm.NewRedisCache(ctx, cfg.Cache)
	}
	return llm.NewMemoryCache(cfg.Cache), nil
}
