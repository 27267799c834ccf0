package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// tracesCmd provides subcommands for trace inspection
func tracesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "traces",
		Short: "Inspect collected traces",
	}

	cmd.AddCommand(
		tracesStatsCmd(),
		tracesListCmd(),
	)
	return cmd
}

func tracesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate trace statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTraceStore()
			if err != nil {
				return err
			}

			stats, err := store.GetTraceStats()
			if err != nil {
				return fmt.Errorf("failed to compute stats: %w", err)
			}

			fmt.Printf("Total traces:    %d\n", stats.TotalTraces)
			fmt.Printf("Avg latency:     %.1f ms\n", stats.AvgLatencyMS)
			fmt.Println("Per component:")

			components := make([]string, 0, len(stats.Components))
			for c := range stats.Components {
				components = append(components, c)
			}
			sort.Strings(components)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, c := range components {
				fmt.Fprintf(w, "  %s\t%d\n", c, stats.Components[c])
			}
			return w.Flush()
		},
	}
}

func tracesListCmd() *cobra.Command {
	var (
		component string
		startDate string
		endDate   string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collected traces",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newTraceStore()
			if err != nil {
				return err
			}

			traces, err := store.LoadTraces(startDate, endDate, component)
			if err != nil {
				return fmt.Errorf("failed to load traces: %w", err)
			}
			if limit > 0 && len(traces) > limit {
				traces = traces[len(traces)-limit:]
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TRACE ID\tCOMPONENT\tLATENCY\tREWARD")
			for _, t := range traces {
				latency := "-"
				if t.LatencyMS != nil {
					latency = fmt.Sprintf("%.0f ms", *t.LatencyMS)
				}
				rewardStr := "-"
				if t.Reward != nil {
					rewardStr = fmt.Sprintf("%.2f", *t.Reward)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TraceID, t.Component, latency, rewardStr)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&component, "component", "", "Filter by component")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYYMMDD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYYMMDD)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum traces to show (0 for all)")
	return cmd
}
