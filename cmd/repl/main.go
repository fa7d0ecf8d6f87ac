// repl is an interactive console for querying a campaign from the terminal.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/query"
	"campaign-scribe/internal/repl"
	"campaign-scribe/internal/storage"
)

func main() {
	campaignID := flag.String("campaign", "", "campaign id to query (required)")
	flag.Parse()
	if *campaignID == "" {
		log.Fatal("the -campaign flag is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)

	store, err := storage.NewSQLStore(cfg.Storage, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orchestrator := query.NewOrchestrator(store, cfg.Query, logger)
	console := repl.NewREPL(orchestrator, *campaignID, os.Stdin, os.Stdout, logger)
	if err := console.Start(ctx); err != nil {
		log.Fatalf("Console error: %v", err)
	}
}
