package optimize

import (
	"math/rand"
	"strings"
)

// MutationStrategies is the default strategy set, in selection order.
var MutationStrategies = []string{
	"add_emphasis",
	"add_constraint",
	"reorder_instructions",
	"add_example",
	"simplify",
}

var mutationConstraints = []string{
	"\n- Keep response under 150 words",
	"\n- Always validate user emotions first",
	"\n- Never use medical terminology",
	"\n- Prioritize actionable advice",
}

var mutationExamples = []string{
	"\n\nExample: 'I understand that feels overwhelming...'",
	"\n\nGood response: 'Let's take this one step at a time...'",
	"\n\nTemplate: '[Validate] + [Normalize] + [Suggest]'",
}

// mutate applies one rule-based rewrite strategy to a prompt. Unknown
// strategies return the prompt unchanged.
func mutate(rng *rand.Rand, prompt, strategy string) string {
	switch strategy {
	case "add_emphasis":
		lines := strings.Split(prompt, "\n")
		if len(lines) > 3 {
			i := rng.Intn(len(lines))
			lines[i] = "**IMPORTANT**: " + lines[i]
		}
		return strings.Join(lines, "\n")

	case "add_constraint":
		return prompt + mutationConstraints[rng.Intn(len(mutationConstraints))]

	case "reorder_instructions":
		lines := strings.Split(prompt, "\n")
		if len(lines) > 4 {
			middle := lines[2 : len(lines)-2]
			rng.Shuffle(len(middle), func(i, j int) {
				middle[i], middle[j] = middle[j], middle[i]
			})
		}
		return strings.Join(lines, "\n")

	case "add_example":
		return prompt + mutationExamples[rng.Intn(len(mutationExamples))]

	case "simplify":
		lines := strings.Split(prompt, "\n")
		if len(lines) > 5 {
			i := 1 + rng.Intn(len(lines)-2)
			lines = append(lines[:i], lines[i+1:]...)
		}
		return strings.Join(lines, "\n")
	}

	return prompt
}
