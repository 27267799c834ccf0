package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mirelabs/solace/internal/adapters/id"
	"github.com/mirelabs/solace/internal/agent"
	"github.com/spf13/cobra"
)

// chatCmd creates the chat command for interactive sessions
func chatCmd() *cobra.Command {
	var riskLevel string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive support session",
		Long: `Start an interactive session. Each turn is planned by the controller,
executed through the tool engine, and traced for later optimization.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := newTraceStore()
			if err != nil {
				return err
			}
			prompts, err := newPromptRegistry()
			if err != nil {
				return err
			}

			controller, engine, memory, cleanup, err := newAgentStack(ctx, store, prompts)
			if err != nil {
				return err
			}
			defer cleanup()

			sessionID := id.New().GenerateSessionID()
			fmt.Printf("Session: %s\n", sessionID)
			if test := prompts.ActiveABTest(); test != nil {
				fmt.Printf("A/B test active, assigned variant: %s\n", prompts.Assign(sessionID))
			}
			fmt.Println("\nType your message and press Enter. Type 'exit' or 'quit' to end the session.")
			fmt.Println(strings.Repeat("-", 80))
			fmt.Println()

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("You: ")
				if !scanner.Scan() {
					break
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}
				if input == "exit" || input == "quit" {
					break
				}

				memory.AddMessage("user", input)

				plan := controller.Decide(ctx, input, riskLevel, memory.Summary())
				result := engine.ExecutePlan(ctx, plan, input, agent.TurnContext{
					RiskLevel:      riskLevel,
					SessionSummary: memory.Summary(),
				})

				reply := extractReply(result.FinalResponse)
				memory.AddMessage("assistant", reply)

				fmt.Printf("\nSolace: %s\n\n", reply)
			}

			fmt.Println("\nSession ended.")
			return nil
		},
	}

	cmd.Flags().StringVar(&riskLevel, "risk-level", "none", "Risk level for this session (none, medium, high)")
	return cmd
}

// extractReply pulls the reply text from the final response payload.
func extractReply(final map[string]any) string {
	if final == nil {
		return "I'm here with you. Could you tell me more about what's on your mind?"
	}
	if errMsg, ok := final["error"].(string); ok {
		return fmt.Sprintf("I'm having trouble responding right now (%s). I'm still here.", errMsg)
	}
	if reply, ok := final["reply_text"].(string); ok && reply != "" {
		return reply
	}
	return fmt.Sprintf("%v", final)
}
