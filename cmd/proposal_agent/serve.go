package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/analysis"
	"github.com/jonathan/proposal-agent/internal/config"
	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/ingestion"
	"github.com/jonathan/proposal-agent/internal/llm"
	"github.com/jonathan/proposal-agent/internal/logger"
	"github.com/jonathan/proposal-agent/internal/pipeline"
	"github.com/jonathan/proposal-agent/internal/proposal"
	"github.com/jonathan/proposal-agent/internal/retrieval"
	"github.com/jonathan/proposal-agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Start the REST API server with the background analysis runner. Configuration is read from environment variables (and .env if present).",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		database.Close()
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resolver := ingestion.NewResolver(cfg.UseBrowser, log)
	analyzer := analysis.NewAnalyzer(client, log)

	pipe := pipeline.New(database, analyzer, resolver, log)
	runner := pipeline.NewRunner(pipe, cfg.Workers, cfg.QueueSize, cfg.JobTimeout, log)
	defer runner.Stop()

	retriever := retrieval.NewRetriever(client, database, log)
	proposals := proposal.NewService(database, client, retriever, resolver, log)

	srv, err := server.New(cfg, server.Deps{
		DB:        database,
		Runner:    runner,
		Proposals: proposals,
		Embedder:  client,
		Generator: client,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("starting proposal agent",
		zap.Int("port", cfg.Port),
		zap.Int("workers", cfg.Workers))
	return srv.Start()
}
