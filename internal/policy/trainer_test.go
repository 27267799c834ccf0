package policy

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirelabs/solace/internal/domain"
	"github.com/mirelabs/solace/internal/trace"
)

func rewardPtr(v float64) *float64 { return &v }

func TestTracesToEpisodes(t *testing.T) {
	trainer := NewTrainer(DefaultActionSpace, 1)

	traces := []*trace.Trace{
		{Component: "Controller", Prompt: "plan", Reward: rewardPtr(0.8)},
		{Component: "MasterResponder", Prompt: "respond", Reward: rewardPtr(0.6)},
		{Component: "SomethingElse", Prompt: "x"},
	}

	episodes := trainer.TracesToEpisodes(traces)
	require.Len(t, episodes, 3)

	assert.Equal(t, "EmotionTool", episodes[0][0].Action)
	assert.Equal(t, 0.8, episodes[0][0].Reward)
	assert.Equal(t, "MasterResponderTool", episodes[1][0].Action)
	assert.Equal(t, DefaultActionSpace[0], episodes[2][0].Action)
	assert.Equal(t, 0.0, episodes[2][0].Reward, "unscored trace defaults to zero reward")
	assert.Equal(t, 0.5, episodes[2][0].Value)
}

func TestComputeReturns(t *testing.T) {
	trainer := NewTrainer(DefaultActionSpace, 1)

	t.Run("single step", func(t *testing.T) {
		returns := trainer.ComputeReturns([]float64{0.7})
		require.Len(t, returns, 1)
		assert.Equal(t, 0.7, returns[0])
	})

	t.Run("discounted multi step", func(t *testing.T) {
		returns := trainer.ComputeReturns([]float64{1.0, 1.0})
		assert.InDelta(t, 1.0+0.99, returns[0], 1e-9)
		assert.InDelta(t, 1.0, returns[1], 1e-9)
	})
}

func TestNormalizeAdvantages(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, NormalizeAdvantages(nil))
	})

	t.Run("zero mean unit variance", func(t *testing.T) {
		out := NormalizeAdvantages([]float64{0.1, 0.5, 0.9})

		var mean float64
		for _, v := range out {
			mean += v
		}
		mean /= float64(len(out))
		assert.InDelta(t, 0.0, mean, 1e-9)

		var variance float64
		for _, v := range out {
			variance += (v - mean) * (v - mean)
		}
		std := math.Sqrt(variance / float64(len(out)))
		assert.InDelta(t, 1.0, std, 1e-6)
	})

	t.Run("identical values do not blow up", func(t *testing.T) {
		out := NormalizeAdvantages([]float64{0.5, 0.5, 0.5})
		for _, v := range out {
			assert.InDelta(t, 0.0, v, 1e-6)
		}
	})
}

func TestTrain(t *testing.T) {
	t.Run("empty traces", func(t *testing.T) {
		trainer := NewTrainer(DefaultActionSpace, 2)
		assert.ErrorIs(t, trainer.Train(nil), domain.ErrNoTraces)
	})

	t.Run("accumulates across epochs", func(t *testing.T) {
		trainer := NewTrainer(DefaultActionSpace, 3)
		traces := []*trace.Trace{
			{Component: "Controller", Reward: rewardPtr(0.9)},
			{Component: "MasterResponder", Reward: rewardPtr(0.3)},
		}
		require.NoError(t, trainer.Train(traces))

		summary := trainer.Summary()
		byAction := make(map[string]ActionStats, len(summary))
		for _, s := range summary {
			byAction[s.Action] = s
		}

		assert.Equal(t, 3, byAction["EmotionTool"].Count, "one count per epoch")
		assert.Equal(t, 3, byAction["MasterResponderTool"].Count)
		assert.Equal(t, 0, byAction["TherapyTool"].Count)

		// Controller trace has the higher reward, so its action carries the
		// positive advantage after batch normalization.
		assert.Greater(t, byAction["EmotionTool"].MeanAdvantage, 0.0)
		assert.Less(t, byAction["MasterResponderTool"].MeanAdvantage, 0.0)
	})
}

func TestSummaryOrdering(t *testing.T) {
	trainer := NewTrainer(DefaultActionSpace, 1)
	traces := []*trace.Trace{
		{Component: "Controller", Reward: rewardPtr(0.5)},
		{Component: "Controller", Reward: rewardPtr(0.7)},
		{Component: "MasterResponder", Reward: rewardPtr(0.6)},
	}
	require.NoError(t, trainer.Train(traces))

	summary := trainer.Summary()
	require.Len(t, summary, len(DefaultActionSpace))
	assert.Equal(t, "EmotionTool", summary[0].Action, "most used action first")
	assert.InDelta(t, 100.0*2.0/3.0, summary[0].UsagePct, 1e-9)
}

func TestSavePolicy(t *testing.T) {
	trainer := NewTrainer(DefaultActionSpace, 2)
	traces := []*trace.Trace{
		{Component: "Controller", Reward: rewardPtr(0.8)},
		{Component: "MasterResponder", Reward: rewardPtr(0.2)},
	}
	require.NoError(t, trainer.Train(traces))

	dir := t.TempDir()
	require.NoError(t, trainer.SavePolicy(dir))

	data, err := os.ReadFile(filepath.Join(dir, StateFileName))
	require.NoError(t, err)

	var saved struct {
		ActionSpace      []string           `json:"action_space"`
		ActionCounts     map[string]int     `json:"action_counts"`
		ActionAvgRewards map[string]float64 `json:"action_avg_rewards"`
		Hyperparameters  map[string]any     `json:"hyperparameters"`
	}
	require.NoError(t, json.Unmarshal(data, &saved))

	assert.Equal(t, DefaultActionSpace, saved.ActionSpace)
	assert.Equal(t, 2, saved.ActionCounts["EmotionTool"])
	assert.Contains(t, saved.ActionAvgRewards, "TherapyTool")
	assert.Equal(t, 0.0003, saved.Hyperparameters["learning_rate"])
	assert.Equal(t, 0.99, saved.Hyperparameters["gamma"])
	assert.Equal(t, 0.2, saved.Hyperparameters["epsilon"])
}
