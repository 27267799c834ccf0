package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mirelabs/solace/internal/adapters/metrics"
	"github.com/mirelabs/solace/internal/domain"
	"github.com/mirelabs/solace/internal/prompt"
)

// textAnalysisTools receive the raw user message as their "text" input when
// the plan did not spell it out.
var textAnalysisTools = map[string]bool{
	"EmotionTool":    true,
	"SentimentTool":  true,
	"AssessmentTool": true,
}

// StepResult is the typed outcome of one plan step. Exactly one of Output and
// Err is meaningful.
type StepResult struct {
	Name   string
	Output map[string]any
	Err    error
}

// Value renders the step outcome in the keyed-map form used for the responder
// context and for tracing: either the tool output or an {error} wrapper.
func (r StepResult) Value() map[string]any {
	if r.Err == nil {
		return r.Output
	}
	if errors.Is(r.Err, domain.ErrToolNotFound) {
		return map[string]any{"error": "Tool not found"}
	}
	return map[string]any{"error": r.Err.Error()}
}

// TurnContext carries the per-turn context the engine folds into the final
// responder prompt.
type TurnContext struct {
	RiskLevel      string
	SessionSummary string
}

// ExecutionResult is the engine's output for one plan: the ordered per-step
// results plus the final response payload (nil when the final action did not
// resolve to the responder tool).
type ExecutionResult struct {
	ToolResults   []StepResult
	FinalResponse map[string]any
}

// Engine dispatches a plan's tool sequence against the registry, sequentially
// and partial-failure tolerant, then invokes the final action with the
// aggregated context.
type Engine struct {
	registry *Registry
	prompts  *prompt.Registry
	logger   *slog.Logger
}

// NewEngine creates an execution engine over the given registries.
func NewEngine(registry *Registry, prompts *prompt.Registry) *Engine {
	return &Engine{
		registry: registry,
		prompts:  prompts,
		logger:   slog.With("component", "tool_engine"),
	}
}

// ExecutePlan runs the plan's tool sequence in order. One tool's failure
// never blocks its siblings: errors are recorded per step and execution
// continues. Unknown tool names record a tool-not-found error. After the
// sequence, the designated responder tool is invoked with a synthesized
// context block covering the turn and every prior result.
func (e *Engine) ExecutePlan(ctx context.Context, plan *Plan, userInput string, turn TurnContext) *ExecutionResult {
	result := &ExecutionResult{
		ToolResults: make([]StepResult, 0, len(plan.ToolSequence)),
	}

	for _, step := range plan.ToolSequence {
		input := step.Input
		if input == nil {
			input = map[string]any{}
		}
		if _, has := input["text"]; !has && textAnalysisTools[step.Name] {
			input["text"] = userInput
		}

		tool, ok := e.registry.Get(step.Name)
		if !ok {
			e.logger.Warn("plan references unknown tool", "tool", step.Name)
			metrics.ToolExecutionsTotal.WithLabelValues(step.Name, "not_found").Inc()
			result.ToolResults = append(result.ToolResults, StepResult{Name: step.Name, Err: domain.ErrToolNotFound})
			continue
		}

		output, err := tool.Execute(ctx, input)
		if err != nil {
			e.logger.Warn("tool execution failed", "tool", step.Name, "error", err)
			metrics.ToolExecutionsTotal.WithLabelValues(step.Name, "error").Inc()
			result.ToolResults = append(result.ToolResults, StepResult{
				Name: step.Name,
				Err:  domain.NewDomainError(domain.ErrToolExecutionFailed, err.Error()),
			})
			continue
		}
		metrics.ToolExecutionsTotal.WithLabelValues(step.Name, "ok").Inc()
		result.ToolResults = append(result.ToolResults, StepResult{Name: step.Name, Output: output})
	}

	if plan.FinalAction == DefaultFinalAction {
		if responder, ok := e.registry.Get(plan.FinalAction); ok {
			promptContext := e.buildResponderContext(userInput, result.ToolResults, turn)
			final, err := responder.Execute(ctx, map[string]any{"prompt_context": promptContext})
			if err != nil {
				e.logger.Error("final action failed", "tool", plan.FinalAction, "error", err)
				metrics.ToolExecutionsTotal.WithLabelValues(plan.FinalAction, "error").Inc()
				result.FinalResponse = map[string]any{"error": err.Error()}
			} else {
				metrics.ToolExecutionsTotal.WithLabelValues(plan.FinalAction, "ok").Inc()
				result.FinalResponse = final
			}
		}
	}

	return result
}

// buildResponderContext is the only place multiple tool outputs are merged:
// user message, turn context, and every prior result rendered as
// "[ToolName]\n<result>".
func (e *Engine) buildResponderContext(userInput string, results []StepResult, turn TurnContext) string {
	task := prompt.ResponderBaseline
	if e.prompts != nil {
		if p, err := e.prompts.GetPrompt(prompt.ComponentResponder, ""); err == nil {
			task = p
		}
	}

	sessionSummary := turn.SessionSummary
	if sessionSummary == "" {
		sessionSummary = "None"
	}
	riskLevel := turn.RiskLevel
	if riskLevel == "" {
		riskLevel = "unknown"
	}

	var b strings.Builder
	b.WriteString("=== USER MESSAGE ===\n")
	b.WriteString(userInput)
	b.WriteString("\n\n=== CONTEXT ===\n")
	fmt.Fprintf(&b, "Risk Level: %s\n", riskLevel)
	fmt.Fprintf(&b, "Session Summary: %s\n", sessionSummary)
	b.WriteString("\n=== TOOL RESULTS ===\n")
	for _, r := range results {
		fmt.Fprintf(&b, "[%s]\n%v\n\n", r.Name, r.Value())
	}
	b.WriteString("=== TASK ===\n")
	b.WriteString(task)
	return b.String()
}
