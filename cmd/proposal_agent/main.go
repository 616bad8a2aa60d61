// Package main provides the entry point for the Proposal Agent HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "proposal_agent",
	Short: "Freelance job analysis and proposal drafting server",
	Long:  "Proposal Agent analyzes freelance job postings through a staged LLM pipeline, scores client fit, and drafts proposals grounded in the user's resume material via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
