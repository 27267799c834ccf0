// Package prompt manages versioned prompt variants per component, with A/B
// rollout control. The on-disk JSON file is the single source of truth; every
// mutation persists synchronously before returning.
package prompt

import (
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mirelabs/solace/internal/domain"
)

// BaselineVariantID is the variant every component falls back to.
const BaselineVariantID = "baseline"

// Performance accumulates observed rewards for one variant.
type Performance struct {
	TotalUses int       `json:"total_uses"`
	AvgReward float64   `json:"avg_reward"`
	Rewards   []float64 `json:"rewards"`
}

// Record is one registered prompt variant.
type Record struct {
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
	Performance Performance    `json:"performance"`
}

// ABTest describes the single in-flight A/B test. Starting a new test
// overwrites the prior one; only one is ever active.
type ABTest struct {
	Component    string    `json:"component"`
	VariantA     string    `json:"variant_a"`
	VariantB     string    `json:"variant_b"`
	TrafficSplit float64   `json:"traffic_split"`
	StartedAt    time.Time `json:"started_at"`
}

type registryFile struct {
	Prompts       map[string]map[string]*Record `json:"prompts"`
	ActiveVariant string                        `json:"active_variant"`
	ABTest        *ABTest                       `json:"ab_test"`
}

// Registry is the file-backed variant store.
type Registry struct {
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	data registryFile
}

// NewRegistry loads the registry at path, initializing an empty one if the
// file does not exist yet.
func NewRegistry(path string) (*Registry, error) {
	if path == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "registry path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	r := &Registry{
		path:   path,
		logger: slog.With("component", "prompt_registry"),
		data: registryFile{
			Prompts:       make(map[string]map[string]*Record),
			ActiveVariant: BaselineVariantID,
		},
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &r.data); err != nil {
			return nil, domain.NewDomainError(domain.ErrInvalidInput, "registry file is corrupt: "+err.Error())
		}
		if r.data.Prompts == nil {
			r.data.Prompts = make(map[string]map[string]*Record)
		}
	}

	return r, nil
}

// RegisterPrompt adds (or replaces) a variant for a component.
func (r *Registry) RegisterPrompt(component, variantID, content string, metadata map[string]any) error {
	if component == "" || variantID == "" || content == "" {
		return domain.ErrEmptyContent
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data.Prompts[component] == nil {
		r.data.Prompts[component] = make(map[string]*Record)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	r.data.Prompts[component][variantID] = &Record{
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
		Performance: Performance{
			Rewards: []float64{},
		},
	}

	return r.save()
}

// GetPrompt returns the prompt content for a component. An empty variantID
// selects the process-wide active variant; an unknown variant falls back to
// the baseline. Only an unregistered component is an error.
func (r *Registry) GetPrompt(component, variantID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	variants, ok := r.data.Prompts[component]
	if !ok {
		return "", domain.NewDomainError(domain.ErrUnknownComponent, component)
	}

	if variantID == "" {
		variantID = r.data.ActiveVariant
	}
	record, ok := variants[variantID]
	if !ok {
		record, ok = variants[BaselineVariantID]
		if !ok {
			return "", domain.NewDomainError(domain.ErrVariantNotFound, component+"/"+variantID)
		}
	}

	return record.Content, nil
}

// HasVariant reports whether the component has the given variant registered.
func (r *Registry) HasVariant(component, variantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data.Prompts[component][variantID]
	return ok
}

// SetActive makes variantID the process-wide active variant.
func (r *Registry) SetActive(variantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.ActiveVariant = variantID
	return r.save()
}

// ActiveVariant returns the process-wide active variant id.
func (r *Registry) ActiveVariant() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data.ActiveVariant
}

// RecordPerformance appends a reward observation to a variant and recomputes
// its running mean. Unknown component/variant pairs are ignored.
func (r *Registry) RecordPerformance(component, variantID string, reward float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.data.Prompts[component][variantID]
	if !ok {
		return nil
	}

	perf := &record.Performance
	perf.TotalUses++
	perf.Rewards = append(perf.Rewards, reward)

	var sum float64
	for _, v := range perf.Rewards {
		sum += v
	}
	perf.AvgReward = sum / float64(len(perf.Rewards))

	return r.save()
}

// StartABTest begins an A/B test between two variants of a component.
// trafficSplit is the fraction of sessions assigned to variant B. Any prior
// test is overwritten.
func (r *Registry) StartABTest(component, variantA, variantB string, trafficSplit float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data.ABTest = &ABTest{
		Component:    component,
		VariantA:     variantA,
		VariantB:     variantB,
		TrafficSplit: trafficSplit,
		StartedAt:    time.Now(),
	}
	r.logger.Info("A/B test started",
		"component", component, "variant_a", variantA, "variant_b", variantB,
		"traffic_split", trafficSplit)

	return r.save()
}

// ActiveABTest returns a copy of the in-flight A/B test, or nil.
func (r *Registry) ActiveABTest() *ABTest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data.ABTest == nil {
		return nil
	}
	test := *r.data.ABTest
	return &test
}

// StopABTest ends the in-flight test. A non-empty winner is promoted to the
// active variant. Returns the stopped test.
func (r *Registry) StopABTest(winner string) (*ABTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data.ABTest == nil {
		return nil, domain.ErrNoActiveABTest
	}

	test := *r.data.ABTest
	if winner != "" {
		r.data.ActiveVariant = winner
		r.logger.Info("A/B test winner promoted", "variant", winner)
	}
	r.data.ABTest = nil

	if err := r.save(); err != nil {
		return nil, err
	}
	return &test, nil
}

// Assign deterministically buckets a session into the in-flight test: the
// same session id always sees the same variant. Without an active test it
// returns the active variant.
func (r *Registry) Assign(sessionID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data.ABTest == nil {
		return r.data.ActiveVariant
	}

	h := fnv.New32a()
	h.Write([]byte(sessionID))
	bucket := float64(h.Sum32()%1000) / 1000.0
	if bucket < r.data.ABTest.TrafficSplit {
		return r.data.ABTest.VariantB
	}
	return r.data.ABTest.VariantA
}

// VariantInfo is a listing row for CLI and API consumers.
type VariantInfo struct {
	Component string    `json:"component"`
	VariantID string    `json:"variant_id"`
	TotalUses int       `json:"total_uses"`
	AvgReward float64   `json:"avg_reward"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns every registered variant, sorted by component then variant id.
func (r *Registry) List() []VariantInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []VariantInfo
	for component, variants := range r.data.Prompts {
		for variantID, record := range variants {
			out = append(out, VariantInfo{
				Component: component,
				VariantID: variantID,
				TotalUses: record.Performance.TotalUses,
				AvgReward: record.Performance.AvgReward,
				CreatedAt: record.CreatedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Component != out[j].Component {
			return out[i].Component < out[j].Component
		}
		return out[i].VariantID < out[j].VariantID
	})
	return out
}

// save writes the whole registry atomically. Callers must hold r.mu.
func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
