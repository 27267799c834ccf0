package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mirelabs/solace/internal/config"
	"github.com/mirelabs/solace/internal/policy"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "solace",
		Short: "Solace - trace-optimized emotional support agent",
		Long: `Solace is an agentic emotional support runtime.
A controller plans tool sequences per turn, every model call is traced,
and the collected traces drive prompt optimization and policy training.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		chatCmd(),
		optimizeCmd(),
		trainCmd(),
		tracesCmd(),
		promptsCmd(),
		serveCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Current configuration:")
			fmt.Println()

			fmt.Println("LLM:")
			fmt.Printf("  URL:         %s\n", cfg.LLM.URL)
			fmt.Printf("  Model:       %s\n", cfg.LLM.Model)
			fmt.Printf("  Max Tokens:  %d\n", cfg.LLM.MaxTokens)
			fmt.Printf("  Temperature: %.2f\n", cfg.LLM.Temperature)
			fmt.Printf("  API Key:     %s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Println()

			fmt.Println("Gemini:")
			fmt.Printf("  Model:   %s\n", cfg.Gemini.Model)
			fmt.Printf("  API Key: %s\n", maskSecret(cfg.Gemini.APIKey))
			fmt.Printf("  Status:  %s\n", boolStatus(cfg.IsGeminiConfigured()))
			fmt.Println()

			fmt.Println("Tracing:")
			fmt.Printf("  Directory: %s\n", cfg.Trace.Dir)
			fmt.Printf("  Enabled:   %t\n", cfg.Trace.Enabled)
			fmt.Println()

			fmt.Println("Prompt Registry:")
			fmt.Printf("  Path: %s\n", cfg.Registry.Path)
			fmt.Println()

			fmt.Println("Optimizer:")
			fmt.Printf("  Population:  %d\n", cfg.Optimizer.PopulationSize)
			fmt.Printf("  Generations: %d\n", cfg.Optimizer.NumGenerations)
			fmt.Printf("  Elites:      %d\n", cfg.Optimizer.EliteCount)
			fmt.Printf("  Seed:        %d\n", cfg.Optimizer.Seed)
			fmt.Printf("  Results Dir: %s\n", cfg.Optimizer.ResultsDir)
			fmt.Println()

			fmt.Println("Policy:")
			fmt.Printf("  Epochs:      %d\n", cfg.Policy.NumEpochs)
			fmt.Printf("  Policy File: %s\n", filepath.Join(filepath.Dir(cfg.Policy.StatePath), policy.StateFileName))
			fmt.Println()

			fmt.Println("Server:")
			fmt.Printf("  Host: %s\n", cfg.Server.Host)
			fmt.Printf("  Port: %d\n", cfg.Server.Port)
			fmt.Println()

			fmt.Println("Environment variables:")
			fmt.Println("  SOLACE_LLM_URL, SOLACE_LLM_API_KEY, SOLACE_LLM_MODEL")
			fmt.Println("  SOLACE_GEMINI_API_KEY, SOLACE_GEMINI_MODEL")
			fmt.Println("  SOLACE_TRACE_DIR, SOLACE_TRACE_ENABLED, SOLACE_REGISTRY_PATH")
			fmt.Println("  SOLACE_OPT_POPULATION, SOLACE_OPT_GENERATIONS, SOLACE_OPT_SEED")
			fmt.Println("  SOLACE_POLICY_EPOCHS, SOLACE_SERVER_HOST, SOLACE_SERVER_PORT")

			return nil
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Solace %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}
