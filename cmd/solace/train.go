package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/mirelabs/solace/internal/policy"
	"github.com/spf13/cobra"
)

// trainCmd runs advantage tracking over collected traces
func trainCmd() *cobra.Command {
	var (
		component string
		startDate string
		endDate   string
		epochs    int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the tool-selection policy on collected traces",
		Long: `Convert collected traces to single-step episodes, compute normalized
advantages per action, and save the accumulated policy statistics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTraceStore()
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
			fmt.Printf("Training on %d traces\n", len(traces))

			if !cmd.Flags().Changed("epochs") {
				epochs = cfg.Policy.NumEpochs
			}

			trainer := policy.NewTrainer(policy.DefaultActionSpace, epochs)
			if err := trainer.Train(traces); err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\nACTION\tCOUNT\tUSAGE\tMEAN ADVANTAGE")
			for _, s := range trainer.Summary() {
				fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%.3f\n", s.Action, s.Count, s.UsagePct, s.MeanAdvantage)
			}
			w.Flush()

			outputDir := filepath.Dir(cfg.Policy.StatePath)
			if err := trainer.SavePolicy(outputDir); err != nil {
				return fmt.Errorf("failed to save policy: %w", err)
			}
			fmt.Printf("\nPolicy saved to %s\n", filepath.Join(outputDir, policy.StateFileName))

			return nil
		},
	}

	cmd.Flags().StringVar(&component, "component", "", "Only train on traces from this component")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYYMMDD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYYMMDD)")
	cmd.Flags().IntVar(&epochs, "epochs", 0, "Training epochs (defaults to configured epochs)")
	return cmd
}
