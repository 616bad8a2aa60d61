package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-agent/internal/analysis"
	"github.com/jonathan/proposal-agent/internal/config"
	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/ingestion"
	"github.com/jonathan/proposal-agent/internal/llm"
	"github.com/jonathan/proposal-agent/internal/logger"
	"github.com/jonathan/proposal-agent/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the analysis pipeline for a single job",
	Long:  "Run the full analysis pipeline synchronously for an already-submitted job. Useful for reprocessing failed jobs without going through the API.",
	RunE:  runAnalyze,
}

var analyzeJobID string

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeJobID, "job-id", "j", "", "Job ID to analyze (required)")
	_ = analyzeCmd.MarkFlagRequired("job-id")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	jobID, err := uuid.Parse(analyzeJobID)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", analyzeJobID, err)
	}

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
	defer database.Close()

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resolver := ingestion.NewResolver(cfg.UseBrowser, log)
	analyzer := analysis.NewAnalyzer(client, log)
	pipe := pipeline.New(database, analyzer, resolver, log)

	runCtx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
	defer cancel()

	if err := pipe.Run(runCtx, jobID); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	job, err := database.GetJob(ctx, jobID)
	if err != nil || job == nil {
		return fmt.Errorf("failed to reload job after analysis: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Analysis finished for job %s\n", jobID)
	fmt.Fprintf(os.Stdout, "Status: %s\n", job.Status)
	if job.Domain != nil {
		fmt.Fprintf(os.Stdout, "Domain: %s\n", *job.Domain)
	}
	if job.FitScore != nil {
		fmt.Fprintf(os.Stdout, "Fit score: %d\n", *job.FitScore)
	}
	return nil
}
