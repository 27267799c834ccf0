package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mirelabs/solace/internal/adapters/metrics"
	"github.com/mirelabs/solace/internal/llm"
	"github.com/mirelabs/solace/internal/prompt"
)

const (
	plannerMaxTokens = 500

	planFormat = `OUTPUT FORMAT (STRICT JSON, NO MARKDOWN):
{
"tool_sequence": [
{"name": "ToolName1", "input": {}, "reason": "why calling this"},
{"name": "ToolName2", "input": {}, "reason": "why calling this"}
],
"final_action": "MasterResponderTool",
"overall_strategy": "brief 1-sentence explanation of approach"
}

REMEMBER: Output ONLY the JSON object above. No ` + "```json```" + ` markers, no explanations.`
)

// Controller asks a language model to emit a structured plan for one turn:
// an ordered tool sequence plus one mandatory final action.
type Controller struct {
	client   llm.Client
	registry *Registry
	prompts  *prompt.Registry
	logger   *slog.Logger
}

// NewController creates a planner over the given model client, tool registry
// and prompt registry.
func NewController(client llm.Client, registry *Registry, prompts *prompt.Registry) *Controller {
	return &Controller{
		client:   client,
		registry: registry,
		prompts:  prompts,
		logger:   slog.With("component", "controller"),
	}
}

// Decide plans the tool sequence for one user turn. The result is always a
// usable Plan: any model, parse or validation failure degrades to the
// fallback plan and is surfaced only as a log line.
func (c *Controller) Decide(ctx context.Context, userInput, riskLevel, sessionSummary string) *Plan {
	planPrompt := c.buildPrompt(userInput, riskLevel, sessionSummary)

	resp, err := c.client.Generate(ctx, planPrompt,
		llm.WithMaxTokens(plannerMaxTokens),
		llm.WithTemperature(0))
	if err != nil {
		c.logger.Warn("planner call failed, using fallback plan", "error", err)
		metrics.PlansTotal.WithLabelValues("fallback").Inc()
		return FallbackPlan()
	}

	text := llm.ExtractText(resp)
	plan, err := ParsePlan(text)
	if err != nil {
		c.logger.Warn("failed to parse plan, using fallback",
			"error", err, "raw", truncate(text, 200))
		metrics.PlansTotal.WithLabelValues("fallback").Inc()
		return FallbackPlan()
	}

	if _, ok := c.registry.Get(plan.FinalAction); !ok {
		c.logger.Warn("plan names unregistered final action, using fallback",
			"final_action", plan.FinalAction)
		metrics.PlansTotal.WithLabelValues("fallback").Inc()
		return FallbackPlan()
	}

	c.applyRiskGate(plan, riskLevel)
	metrics.PlansTotal.WithLabelValues("model").Inc()
	return plan
}

// buildPrompt composes the planning prompt: the active instruction block from
// the prompt registry, the tool catalog, the turn inputs, and the strict
// output-format contract.
func (c *Controller) buildPrompt(userInput, riskLevel, sessionSummary string) string {
	instructions := prompt.ControllerBaseline
	if c.prompts != nil {
		if p, err := c.prompts.GetPrompt(prompt.ComponentController, ""); err == nil {
			instructions = p
		}
	}

	quoted, _ := json.Marshal(userInput)
	return fmt.Sprintf(`%s

AVAILABLE TOOLS:
%s

INPUT:
{
"user_message": %s,
"risk_level": %q,
"session_summary": %q
}

TASK:
Analyze the user's message and decide which tools to call.

%s`, instructions, c.registry.Descriptions(), quoted, riskLevel, sessionSummary, planFormat)
}

// applyRiskGate front-loads assessment for high-risk turns regardless of how
// the model ordered the sequence.
func (c *Controller) applyRiskGate(plan *Plan, riskLevel string) {
	if riskLevel != "high" {
		return
	}
	for _, step := range plan.ToolSequence {
		if step.Name == "AssessmentTool" {
			return
		}
	}
	if _, ok := c.registry.Get("AssessmentTool"); !ok {
		return
	}
	plan.ToolSequence = append([]PlanStep{{
		Name:   "AssessmentTool",
		Input:  map[string]any{},
		Reason: "high risk level requires assessment first",
	}}, plan.ToolSequence...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
