// Package policy implements advantage tracking over collected traces: one
// trace is one single-step episode, advantages are normalized across the
// whole batch, and per-action statistics accumulate over training epochs.
package policy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/mirelabs/solace/internal/domain"
	"github.com/mirelabs/solace/internal/trace"
)

// DefaultActionSpace is the tool set the tracker attributes advantages to.
var DefaultActionSpace = []string{
	"EmotionTool",
	"SentimentTool",
	"MemoryReadTool",
	"PatternDetectorTool",
	"InterventionSelectorTool",
	"AssessmentTool",
	"TherapyTool",
	"MasterResponderTool",
}

const (
	defaultLearningRate = 0.0003
	defaultGamma        = 0.99
	defaultEpsilon      = 0.2
	defaultValue        = 0.5
	normalizeEpsilon    = 1e-8
)

// Step is one state/action/reward tuple inside an episode.
type Step struct {
	State  string
	Action string
	Reward float64
	Value  float64
}

// Episode is an ordered step sequence. Traces currently yield single-step
// episodes.
type Episode []Step

// ActionStats is the accumulated usage and advantage for one action.
type ActionStats struct {
	Action        string  `json:"action"`
	Count         int     `json:"count"`
	UsagePct      float64 `json:"usage_pct"`
	MeanAdvantage float64 `json:"mean_advantage"`
}

// Trainer accumulates per-action advantage statistics over epochs of trace
// batches.
type Trainer struct {
	actionSpace  []string
	learningRate float64
	gamma        float64
	epsilon      float64
	numEpochs    int

	actionCounts     map[string]int
	actionAdvantages map[string][]float64
	logger           *slog.Logger
}

// NewTrainer creates a trainer over the given action space with the default
// hyperparameters.
func NewTrainer(actionSpace []string, numEpochs int) *Trainer {
	if len(actionSpace) == 0 {
		actionSpace = DefaultActionSpace
	}
	if numEpochs < 1 {
		numEpochs = 10
	}
	t := &Trainer{
		actionSpace:      actionSpace,
		learningRate:     defaultLearningRate,
		gamma:            defaultGamma,
		epsilon:          defaultEpsilon,
		numEpochs:        numEpochs,
		actionCounts:     make(map[string]int, len(actionSpace)),
		actionAdvantages: make(map[string][]float64, len(actionSpace)),
		logger:           slog.With("component", "policy_trainer"),
	}
	for _, a := range actionSpace {
		t.actionCounts[a] = 0
		t.actionAdvantages[a] = nil
	}
	return t
}

// TracesToEpisodes converts traces to single-step episodes. Conversation
// grouping would turn these into multi-step episodes later.
func (t *Trainer) TracesToEpisodes(traces []*trace.Trace) []Episode {
	episodes := make([]Episode, 0, len(traces))
	for _, tr := range traces {
		episodes = append(episodes, Episode{{
			State:  tr.Prompt,
			Action: t.extractAction(tr),
			Reward: tr.RewardOr(0.0),
			Value:  defaultValue,
		}})
	}
	return episodes
}

// extractAction maps a trace's component to an action in the space.
func (t *Trainer) extractAction(tr *trace.Trace) string {
	switch tr.Component {
	case "Controller":
		return "EmotionTool"
	case "MasterResponder":
		return "MasterResponderTool"
	default:
		if len(t.actionSpace) > 0 {
			return t.actionSpace[0]
		}
		return "unknown"
	}
}

// ComputeReturns discounts an episode's rewards into returns.
func (t *Trainer) ComputeReturns(rewards []float64) []float64 {
	returns := make([]float64, len(rewards))
	running := 0.0
	for i := len(rewards) - 1; i >= 0; i-- {
		running = rewards[i] + t.gamma*running
		returns[i] = running
	}
	return returns
}

// NormalizeAdvantages shifts and scales advantages to zero mean and unit
// variance across the whole batch. Normalizing per single-step episode would
// zero every advantage, so the batch is the normalization unit.
func NormalizeAdvantages(advantages []float64) []float64 {
	if len(advantages) == 0 {
		return advantages
	}

	var mean float64
	for _, a := range advantages {
		mean += a
	}
	mean /= float64(len(advantages))

	var variance float64
	for _, a := range advantages {
		d := a - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(advantages)))

	out := make([]float64, len(advantages))
	for i, a := range advantages {
		out[i] = (a - mean) / (std + normalizeEpsilon)
	}
	return out
}

// Train runs the epoch loop over the trace batch, accumulating per-action
// counts and normalized advantages across all epochs.
func (t *Trainer) Train(traces []*trace.Trace) error {
	if len(traces) == 0 {
		return domain.ErrNoTraces
	}

	episodes := t.TracesToEpisodes(traces)
	t.logger.Info("training started",
		"traces", len(traces),
		"episodes", len(episodes),
		"epochs", t.numEpochs,
		"actions", len(t.actionSpace))

	inSpace := make(map[string]bool, len(t.actionSpace))
	for _, a := range t.actionSpace {
		inSpace[a] = true
	}

	for epoch := 0; epoch < t.numEpochs; epoch++ {
		var actions []string
		var advantages []float64

		for _, ep := range episodes {
			rewards := make([]float64, len(ep))
			for i, step := range ep {
				rewards[i] = step.Reward
			}
			returns := t.ComputeReturns(rewards)
			for i, step := range ep {
				actions = append(actions, step.Action)
				advantages = append(advantages, returns[i]-step.Value)
			}
		}

		normalized := NormalizeAdvantages(advantages)
		for i, action := range actions {
			if !inSpace[action] {
				continue
			}
			t.actionCounts[action]++
			t.actionAdvantages[action] = append(t.actionAdvantages[action], normalized[i])
		}

		t.logger.Debug("epoch complete", "epoch", epoch+1)
	}

	t.logger.Info("training complete")
	return nil
}

// Summary returns per-action usage and mean advantage, sorted by count
// descending then name for stable output.
func (t *Trainer) Summary() []ActionStats {
	total := 0
	for _, c := range t.actionCounts {
		total += c
	}

	stats := make([]ActionStats, 0, len(t.actionSpace))
	for _, action := range t.actionSpace {
		s := ActionStats{Action: action, Count: t.actionCounts[action]}
		if total > 0 {
			s.UsagePct = float64(s.Count) / float64(total) * 100
		}
		if advs := t.actionAdvantages[action]; len(advs) > 0 {
			var sum float64
			for _, a := range advs {
				sum += a
			}
			s.MeanAdvantage = sum / float64(len(advs))
		}
		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Action < stats[j].Action
	})
	return stats
}

// StateFileName is the file SavePolicy writes inside its output directory.
const StateFileName = "learned_policy.json"

type savedPolicy struct {
	ActionSpace      []string           `json:"action_space"`
	ActionCounts     map[string]int     `json:"action_counts"`
	ActionAvgRewards map[string]float64 `json:"action_avg_rewards"`
	Hyperparameters  map[string]any     `json:"hyperparameters"`
}

// SavePolicy writes the accumulated statistics to <outputDir>/StateFileName.
func (t *Trainer) SavePolicy(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create policy dir: %w", err)
	}

	avgRewards := make(map[string]float64, len(t.actionSpace))
	for action, advs := range t.actionAdvantages {
		if len(advs) == 0 {
			avgRewards[action] = 0.0
			continue
		}
		var sum float64
		for _, a := range advs {
			sum += a
		}
		avgRewards[action] = sum / float64(len(advs))
	}

	policy := savedPolicy{
		ActionSpace:      t.actionSpace,
		ActionCounts:     t.actionCounts,
		ActionAvgRewards: avgRewards,
		Hyperparameters: map[string]any{
			"learning_rate": t.learningRate,
			"gamma":         t.gamma,
			"epsilon":       t.epsilon,
			"num_epochs":    t.numEpochs,
		},
	}

	data, err := json.MarshalIndent(policy, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}
	path := filepath.Join(outputDir, StateFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write policy: %w", err)
	}

	t.logger.Info("policy saved", "path", path)
	return nil
}
