package trace

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mirelabs/solace/internal/adapters/metrics"
	"github.com/mirelabs/solace/internal/domain"
)

const datePartitionLayout = "20060102"

// Store persists traces as one JSON file per trace under
// <dir>/<YYYYMMDD>/<trace_id>.json. The active (in-flight) set is held in
// memory, keyed by trace id, and guarded by a mutex so traces can be ended
// from any goroutine.
type Store struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]*Trace
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, domain.ErrTraceDirInvalid
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, domain.NewDomainError(domain.ErrTraceDirInvalid, dir)
	}
	return &Store{
		dir:    dir,
		logger: slog.With("component", "trace_store"),
		active: make(map[string]*Trace),
	}, nil
}

// StartTrace opens an in-flight trace for a language-model call and returns
// its id.
func (s *Store) StartTrace(component, prompt string, metadata map[string]any) string {
	now := time.Now()
	t := &Trace{
		TraceID:        newTraceID(component, now),
		Component:      component,
		TimestampStart: now,
		Prompt:         prompt,
		Metadata:       metadata,
	}

	s.mu.Lock()
	s.active[t.TraceID] = t
	s.mu.Unlock()

	metrics.TracesActive.Inc()
	return t.TraceID
}

// EndTrace completes an in-flight trace with the provider response, persists
// it, and evicts it from the active set. Reward may be nil; it is assigned by
// the offline scoring pass. An unknown trace id is logged and ignored, so
// calling code cannot crash the tracing layer.
func (s *Store) EndTrace(traceID string, response any, reward *float64) {
	s.mu.Lock()
	t, ok := s.active[traceID]
	if ok {
		delete(s.active, traceID)
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Warn("trace not found in active set", "trace_id", traceID)
		return
	}

	end := time.Now()
	latency := float64(end.Sub(t.TimestampStart)) / float64(time.Millisecond)
	t.TimestampEnd = &end
	t.LatencyMS = &latency
	t.Response = response
	t.Reward = reward

	metrics.TracesActive.Dec()
	if err := s.save(t, end); err != nil {
		s.logger.Error("failed to persist trace", "trace_id", traceID, "error", err)
		return
	}
	metrics.TracesWrittenTotal.Inc()
}

// save writes the completed trace into the partition for the completion day.
// The write is atomic: a temp file in the partition directory is renamed into
// place.
func (s *Store) save(t *Trace, completedAt time.Time) error {
	dateDir := filepath.Join(s.dir, completedAt.Format(datePartitionLayout))
	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}

	final := filepath.Join(dateDir, t.TraceID+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// LoadTraces reads completed traces back from disk. startDate and endDate are
// inclusive partition names in YYYYMMDD form (date filtering is a
// lexicographic comparison on the partition name); component filters by the
// logical caller name. Empty arguments mean no filtering.
func (s *Store) LoadTraces(startDate, endDate, component string) ([]*Trace, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var traces []*Trace
	for _, name := range names {
		if startDate != "" && name < startDate {
			continue
		}
		if endDate != "" && name > endDate {
			continue
		}

		files, err := os.ReadDir(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("failed to read trace partition", "partition", name, "error", err)
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
				continue
			}
			path := filepath.Join(s.dir, name, f.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				s.logger.Warn("failed to read trace file", "path", path, "error", err)
				continue
			}
			var t Trace
			if err := json.Unmarshal(data, &t); err != nil {
				s.logger.Warn("failed to parse trace file", "path", path, "error", err)
				continue
			}
			if component != "" && t.Component != component {
				continue
			}
			traces = append(traces, &t)
		}
	}

	return traces, nil
}

// Stats summarizes the persisted traces.
type Stats struct {
	TotalTraces  int            `json:"total_traces"`
	Components   map[string]int `json:"components"`
	AvgLatencyMS float64        `json:"avg_latency_ms"`
}

// GetTraceStats computes summary statistics over every persisted trace. With
// no writes in between, repeated calls return identical results.
func (s *Store) GetTraceStats() (*Stats, error) {
	traces, err := s.LoadTraces("", "", "")
	if err != nil {
		return nil, err
	}

	stats := &Stats{Components: make(map[string]int)}
	if len(traces) == 0 {
		return stats, nil
	}

	var totalLatency float64
	for _, t := range traces {
		component := t.Component
		if component == "" {
			component = "unknown"
		}
		stats.Components[component]++
		if t.LatencyMS != nil {
			totalLatency += *t.LatencyMS
		}
	}
	stats.TotalTraces = len(traces)
	stats.AvgLatencyMS = totalLatency / float64(len(traces))
	return stats, nil
}

// ActiveCount reports how many traces are currently in flight.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
