package agent

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mirelabs/solace/internal/domain"
)

// DefaultFinalAction is the designated responder tool; every plan terminates
// in exactly one final action and this is the default when the model omits it.
const DefaultFinalAction = "MasterResponderTool"

// PlanStep is one entry in a plan's tool sequence.
type PlanStep struct {
	Name   string         `json:"name"`
	Input  map[string]any `json:"input"`
	Reason string         `json:"reason"`
}

// Plan is the Controller's structured decision for one turn.
type Plan struct {
	ToolSequence    []PlanStep `json:"tool_sequence"`
	FinalAction     string     `json:"final_action"`
	OverallStrategy string     `json:"overall_strategy"`
}

// FallbackPlan is the degraded plan used whenever planner output cannot be
// parsed or validated: no auxiliary tools, straight to the responder.
func FallbackPlan() *Plan {
	return &Plan{
		ToolSequence:    []PlanStep{},
		FinalAction:     DefaultFinalAction,
		OverallStrategy: "Fallback: direct response due to parse error",
	}
}

// ParsePlan extracts a Plan from raw model output. It strips surrounding code
// fences, locates the first-to-last brace span when prose surrounds the JSON
// object, requires tool_sequence to be present as a list, and injects the
// default final action when absent.
func ParsePlan(raw string) (*Plan, error) {
	text := stripFences(strings.TrimSpace(raw))

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last <= first {
		return nil, domain.NewDomainError(domain.ErrPlanParseFailed, "no JSON object in planner output")
	}
	text = text[first : last+1]

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, domain.NewDomainError(domain.ErrPlanParseFailed, err.Error())
	}

	seq, ok := probe["tool_sequence"]
	if !ok || bytes.Equal(bytes.TrimSpace(seq), []byte("null")) {
		return nil, domain.NewDomainError(domain.ErrInvalidPlan, "tool_sequence must be a list")
	}

	var plan Plan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, domain.NewDomainError(domain.ErrInvalidPlan, err.Error())
	}
	if plan.ToolSequence == nil {
		plan.ToolSequence = []PlanStep{}
	}
	if plan.FinalAction == "" {
		plan.FinalAction = DefaultFinalAction
	}

	return &plan, nil
}

// stripFences removes markdown code-fence wrappers the model may emit despite
// instructions.
func stripFences(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+len("```"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return text
}
