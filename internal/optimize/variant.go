// Package optimize implements evolutionary prompt optimization: a seeded
// population of prompt variants is scored against historical traces, the top
// performers survive each generation, and mutated children fill the rest.
package optimize

// Variant is one prompt candidate in the population with its accumulated
// evaluation scores.
type Variant struct {
	ID        string    `json:"prompt_id"`
	Content   string    `json:"content"`
	ParentID  string    `json:"parent_id,omitempty"`
	AvgReward float64   `json:"avg_reward"`
	NumEvals  int       `json:"num_evaluations"`
	Scores    []float64 `json:"scores"`
}

// NewVariant creates an unevaluated variant.
func NewVariant(id, content, parentID string) *Variant {
	return &Variant{ID: id, Content: content, ParentID: parentID}
}

// AddEvaluation records one score and recomputes the running mean.
func (v *Variant) AddEvaluation(reward float64) {
	v.Scores = append(v.Scores, reward)
	v.NumEvals = len(v.Scores)

	var sum float64
	for _, s := range v.Scores {
		sum += s
	}
	v.AvgReward = sum / float64(v.NumEvals)
}
