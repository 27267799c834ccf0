package optimize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mirelabs/solace/internal/adapters/metrics"
	"github.com/mirelabs/solace/internal/domain"
	"github.com/mirelabs/solace/internal/trace"
)

const (
	defaultTraceSample = 20
	empathyBoost       = 0.05
	evaluationNoise    = 0.1
)

// Config parameterizes one optimization run. Seed drives all randomness so
// runs are reproducible.
type Config struct {
	BaselinePrompt string
	PopulationSize int
	NumGenerations int
	EliteCount     int
	TraceSample    int
	Seed           int64
}

// Summary is the persisted outcome of an optimization run, comparing the best
// variant against the generation-zero baseline.
type Summary struct {
	BestVariantID  string  `json:"best_variant_id"`
	BestReward     float64 `json:"best_reward"`
	BaselineReward float64 `json:"baseline_reward"`
	ImprovementPct float64 `json:"improvement_pct"`
	NumGenerations int     `json:"num_generations"`
	PopulationSize int     `json:"population_size"`
}

// Optimizer evolves a population of prompt variants over a fixed number of
// generations, scoring each variant against sampled historical traces.
type Optimizer struct {
	cfg        Config
	rng        *rand.Rand
	population []*Variant
	baseline   *Variant
	best       *Variant
	generation int
	logger     *slog.Logger
}

// NewOptimizer creates an optimizer for the given configuration.
func NewOptimizer(cfg Config) *Optimizer {
	if cfg.PopulationSize < 2 {
		cfg.PopulationSize = 10
	}
	if cfg.NumGenerations < 1 {
		cfg.NumGenerations = 5
	}
	if cfg.EliteCount < 1 || cfg.EliteCount > cfg.PopulationSize {
		cfg.EliteCount = 3
	}
	if cfg.TraceSample < 1 {
		cfg.TraceSample = defaultTraceSample
	}
	return &Optimizer{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: slog.With("component", "apo_optimizer"),
	}
}

// InitializePopulation seeds generation zero: the unmodified baseline plus
// randomly mutated variants of it.
func (o *Optimizer) InitializePopulation() {
	o.baseline = NewVariant("baseline_v0", o.cfg.BaselinePrompt, "")
	o.population = []*Variant{o.baseline}

	for i := 0; i < o.cfg.PopulationSize-1; i++ {
		strategy := MutationStrategies[o.rng.Intn(len(MutationStrategies))]
		content := mutate(o.rng, o.cfg.BaselinePrompt, strategy)
		o.population = append(o.population,
			NewVariant(fmt.Sprintf("gen0_variant%d", i), content, "baseline_v0"))
	}
}

// EvaluatePopulation scores every variant against a random sample of traces.
// Each sampled trace contributes the trace reward plus an empathy-marker
// bonus and gaussian noise, clamped to [0, 1].
func (o *Optimizer) EvaluatePopulation(traces []*trace.Trace) {
	sampleSize := o.cfg.TraceSample
	if sampleSize > len(traces) {
		sampleSize = len(traces)
	}

	for _, v := range o.population {
		lower := strings.ToLower(v.Content)
		boost := 0.0
		if strings.Contains(lower, "validate") || strings.Contains(lower, "understand") {
			boost = empathyBoost
		}

		perm := o.rng.Perm(len(traces))
		for _, idx := range perm[:sampleSize] {
			base := traces[idx].RewardOr(0.5)
			score := base + boost + o.rng.NormFloat64()*evaluationNoise
			if score < 0 {
				score = 0
			}
			if score > 1 {
				score = 1
			}
			v.AddEvaluation(score)
		}

		o.logger.Debug("variant evaluated",
			"generation", o.generation,
			"variant", v.ID,
			"avg_reward", v.AvgReward,
			"n", v.NumEvals)
	}
}

// SelectBest returns the top-k variants by average reward. The sort is
// stable so equal scores preserve insertion order and the baseline is never
// displaced by a tied child.
func (o *Optimizer) SelectBest(topK int) []*Variant {
	sorted := make([]*Variant, len(o.population))
	copy(sorted, o.population)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AvgReward > sorted[j].AvgReward
	})
	if topK > len(sorted) {
		topK = len(sorted)
	}
	return sorted[:topK]
}

// Evolve builds the next generation: the elite parents survive unchanged and
// mutated children of random parents fill the population back to size.
func (o *Optimizer) Evolve(parents []*Variant) []*Variant {
	next := make([]*Variant, len(parents), o.cfg.PopulationSize)
	copy(next, parents)

	for len(next) < o.cfg.PopulationSize {
		parent := parents[o.rng.Intn(len(parents))]
		strategy := MutationStrategies[o.rng.Intn(len(MutationStrategies))]
		id := fmt.Sprintf("gen%d_variant%d", o.generation+1, len(next))
		next = append(next, NewVariant(id, mutate(o.rng, parent.Content, strategy), parent.ID))
	}
	return next
}

// Optimize runs the full loop and returns the best variant found. The final
// generation is evaluated but never evolved.
func (o *Optimizer) Optimize(traces []*trace.Trace) (*Variant, error) {
	if len(traces) == 0 {
		return nil, domain.ErrNoTraces
	}

	o.logger.Info("starting prompt optimization",
		"population_size", o.cfg.PopulationSize,
		"generations", o.cfg.NumGenerations,
		"traces", len(traces),
		"seed", o.cfg.Seed)

	o.InitializePopulation()

	for gen := 0; gen < o.cfg.NumGenerations; gen++ {
		o.generation = gen
		o.EvaluatePopulation(traces)
		metrics.OptimizerGenerationsTotal.Inc()

		best := o.SelectBest(o.cfg.EliteCount)
		o.logger.Info("generation evaluated",
			"generation", gen,
			"best_variant", best[0].ID,
			"best_reward", best[0].AvgReward)

		if gen < o.cfg.NumGenerations-1 {
			o.population = o.Evolve(best)
		}
	}

	o.best = o.SelectBest(1)[0]
	o.logger.Info("optimization complete",
		"best_variant", o.best.ID,
		"best_reward", o.best.AvgReward,
		"improvement_pct", (o.best.AvgReward-o.baseline.AvgReward)*100)

	return o.best, nil
}

// Best returns the winning variant of the last Optimize call.
func (o *Optimizer) Best() *Variant { return o.best }

// Population returns the current population.
func (o *Optimizer) Population() []*Variant { return o.population }

// SaveResults writes the run artifacts: every variant, the best prompt text,
// and a summary comparing the winner against the generation-zero baseline.
func (o *Optimizer) SaveResults(outputDir string) error {
	if o.best == nil {
		return domain.NewDomainError(domain.ErrNotFound, "no optimization run to save")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	variants, err := json.MarshalIndent(o.population, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "all_variants.json"), variants, 0o644); err != nil {
		return fmt.Errorf("write variants: %w", err)
	}

	if err := os.WriteFile(filepath.Join(outputDir, "best_prompt.txt"), []byte(o.best.Content), 0o644); err != nil {
		return fmt.Errorf("write best prompt: %w", err)
	}

	summary := Summary{
		BestVariantID:  o.best.ID,
		BestReward:     o.best.AvgReward,
		BaselineReward: o.baseline.AvgReward,
		ImprovementPct: (o.best.AvgReward - o.baseline.AvgReward) * 100,
		NumGenerations: o.cfg.NumGenerations,
		PopulationSize: o.cfg.PopulationSize,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "optimization_summary.json"), data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	o.logger.Info("results saved", "dir", outputDir)
	return nil
}
