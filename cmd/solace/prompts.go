package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// promptsCmd provides subcommands for prompt registry management
func promptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage prompt variants and A/B tests",
	}

	cmd.AddCommand(
		promptsListCmd(),
		promptsActivateCmd(),
		promptsABTestCmd(),
	)
	return cmd
}

func promptsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered prompt variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := newPromptRegistry()
			if err != nil {
				return err
			}

			active := prompts.ActiveVariant()
			fmt.Printf("Active variant: %s\n\n", active)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMPONENT\tVARIANT\tUSES\tAVG REWARD")
			for _, v := range prompts.List() {
				marker := ""
				if v.VariantID == active {
					marker = " *"
				}
				fmt.Fprintf(w, "%s\t%s%s\t%d\t%.3f\n", v.Component, v.VariantID, marker, v.TotalUses, v.AvgReward)
			}
			return w.Flush()
		},
	}
}

func promptsActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <variant-id>",
		Short: "Set the active prompt variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := newPromptRegistry()
			if err != nil {
				return err
			}
			if err := prompts.SetActive(args[0]); err != nil {
				return fmt.Errorf("failed to activate variant: %w", err)
			}
			fmt.Printf("Activated variant %s\n", args[0])
			return nil
		},
	}
}

func promptsABTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abtest",
		Short: "Manage the A/B test",
	}

	var split float64
	start := &cobra.Command{
		Use:   "start <component> <variant-a> <variant-b>",
		Short: "Start an A/B test between two variants",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := newPromptRegistry()
			if err != nil {
				return err
			}
			if err := prompts.StartABTest(args[0], args[1], args[2], split); err != nil {
				return fmt.Errorf("failed to start A/B test: %w", err)
			}
			fmt.Printf("A/B test started: %s vs %s (split %.2f)\n", args[1], args[2], split)
			return nil
		},
	}
	start.Flags().Float64Var(&split, "split", 0.5, "Fraction of sessions assigned to variant B")

	var winner string
	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the active A/B test",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := newPromptRegistry()
			if err != nil {
				return err
			}
			stopped, err := prompts.StopABTest(winner)
			if err != nil {
				return fmt.Errorf("failed to stop A/B test: %w", err)
			}
			fmt.Printf("Stopped A/B test on %s (%s vs %s)\n", stopped.Component, stopped.VariantA, stopped.VariantB)
			if winner != "" {
				fmt.Printf("Promoted winner: %s\n", winner)
			}
			return nil
		},
	}
	stop.Flags().StringVar(&winner, "winner", "", "Variant to promote as active")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the active A/B test",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := newPromptRegistry()
			if err != nil {
				return err
			}
			test := prompts.ActiveABTest()
			if test == nil {
				fmt.Println("No active A/B test.")
				return nil
			}
			fmt.Printf("Component: %s\n", test.Component)
			fmt.Printf("Variant A: %s\n", test.VariantA)
			fmt.Printf("Variant B: %s\n", test.VariantB)
			fmt.Printf("Split:     %.2f\n", test.TrafficSplit)
			fmt.Printf("Started:   %s\n", test.StartedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.AddCommand(start, stop, status)
	return cmd
}
