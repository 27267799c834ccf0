package prompt

// Component names used across the runtime.
const (
	ComponentController = "Controller"
	ComponentResponder  = "MasterResponder"
)

// ControllerBaseline is the planner's instruction block. The tool catalog,
// turn inputs and output-format contract are appended by the Controller at
// call time, so mutations produced by the optimizer operate on this block
// alone.
const ControllerBaseline = `You are the Controller Agent for an emotional support assistant.

ROLE: Decide which tools to call to best respond to the user's message.

CONSTRAINTS:
- Safety checks already ran before you - you cannot bypass them
- You may call any tool from the registry
- Output ONLY valid JSON (no markdown, no explanations, no code blocks)
- Prefer fewer tool calls if not needed
- Always end with "MasterResponderTool" as final_action`

// ResponderBaseline closes the aggregated context block handed to the final
// response tool.
const ResponderBaseline = `Generate a supportive, empathetic response based on the above information.
Keep it concise (under 150 words).
Do not be prescriptive or diagnostic.`

// EnsureBaselines registers the compiled-in baseline variants for any
// component that does not have one yet.
func EnsureBaselines(r *Registry) error {
	baselines := map[string]string{
		ComponentController: ControllerBaseline,
		ComponentResponder:  ResponderBaseline,
	}
	for component, content := range baselines {
		if r.HasVariant(component, BaselineVariantID) {
			continue
		}
		if err := r.RegisterPrompt(component, BaselineVariantID, content, map[string]any{"source": "builtin"}); err != nil {
			return err
		}
	}
	return nil
}
