package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mirelabs/solace/internal/adapters/id"
	"github.com/mirelabs/solace/internal/optimize"
	"github.com/mirelabs/solace/internal/prompt"
	"github.com/spf13/cobra"
)

// optimizeCmd provides subcommands for prompt optimization
func optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Evolve prompt variants against collected traces",
		Long: `Run evolutionary prompt optimization over collected traces.

Subcommands:
  run      Run an optimization and save the results
  results  Show the last saved optimization summary`,
	}

	cmd.AddCommand(
		optimizeRunCmd(),
		optimizeResultsCmd(),
	)
	return cmd
}

func optimizeRunCmd() *cobra.Command {
	var (
		component string
		startDate string
		endDate   string
		seed      int64
		register  bool
		activate  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run prompt optimization",
		Long: `Evolve variants of the responder baseline against historical traces.
Traces are scored with the combined reward before evaluation. Use --register
to store the winning variant in the prompt registry and --activate to make it
the active variant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTraceStore()
			if err != nil {
				return err
			}
			prompts, err := newPromptRegistry()
			if err != nil {
				return err
			}

			traces, err := loadScoredTraces(store, startDate, endDate, component)
			if err != nil {
				return err
			}
			if len(traces) == 0 {
				return fmt.Errorf("no traces found, run some sessions first")
			}
			fmt.Printf("Loaded %d traces\n", len(traces))

			baseline, err := prompts.GetPrompt(prompt.ComponentResponder, "")
			if err != nil {
				return fmt.Errorf("failed to load baseline prompt: %w", err)
			}

			if !cmd.Flags().Changed("seed") {
				seed = cfg.Optimizer.Seed
			}

			runID := id.New().GenerateOptimizationRunID()
			fmt.Printf("Starting optimization run %s (seed %d)\n", runID, seed)

			opt := optimize.NewOptimizer(optimize.Config{
				BaselinePrompt: baseline,
				PopulationSize: cfg.Optimizer.PopulationSize,
				NumGenerations: cfg.Optimizer.NumGenerations,
				EliteCount:     cfg.Optimizer.EliteCount,
				TraceSample:    cfg.Optimizer.TraceSample,
				Seed:           seed,
			})

			best, err := opt.Optimize(traces)
			if err != nil {
				return fmt.Errorf("optimization failed: %w", err)
			}

			fmt.Printf("\nBest variant: %s (avg reward %.3f)\n", best.ID, best.AvgReward)

			if err := opt.SaveResults(cfg.Optimizer.ResultsDir); err != nil {
				return fmt.Errorf("failed to save results: %w", err)
			}
			fmt.Printf("Results saved to %s\n", cfg.Optimizer.ResultsDir)

			if register || activate {
				if err := prompts.RegisterPrompt(prompt.ComponentResponder, best.ID, best.Content, map[string]any{
					"source":     "optimizer",
					"run_id":     runID,
					"avg_reward": best.AvgReward,
				}); err != nil {
					return fmt.Errorf("failed to register best variant: %w", err)
				}
				fmt.Printf("Registered variant %s\n", best.ID)
			}
			if activate {
				if err := prompts.SetActive(best.ID); err != nil {
					return fmt.Errorf("failed to activate variant: %w", err)
				}
				fmt.Printf("Activated variant %s\n", best.ID)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&component, "component", "MasterResponder", "Component whose traces to optimize against")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYYMMDD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYYMMDD)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (defaults to configured seed)")
	cmd.Flags().BoolVar(&register, "register", false, "Register the winning variant in the prompt registry")
	cmd.Flags().BoolVar(&activate, "activate", false, "Register and activate the winning variant")
	return cmd
}

func optimizeResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "Show the last optimization summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(cfg.Optimizer.ResultsDir + "/optimization_summary.json")
			if err != nil {
				return fmt.Errorf("no saved results: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "Last optimization summary:")
			fmt.Fprintln(w, string(data))
			return w.Flush()
		},
	}
}
