// Package trace persists one record per language-model call, partitioned by
// calendar day, for offline reward scoring and prompt optimization.
package trace

import (
	"fmt"
	"time"
)

// Trace is one record per language-model call. A trace is created in-flight
// by StartTrace, completed and persisted by EndTrace, and never mutated after
// persistence.
type Trace struct {
	TraceID        string         `json:"trace_id"`
	Component      string         `json:"component"`
	TimestampStart time.Time      `json:"timestamp_start"`
	Prompt         string         `json:"prompt"`
	Metadata       map[string]any `json:"metadata"`
	Response       any            `json:"response"`
	TimestampEnd   *time.Time     `json:"timestamp_end"`
	LatencyMS      *float64       `json:"latency_ms"`
	Reward         *float64       `json:"reward"`
}

// ResponseIsError reports whether the response is a synthetic error record
// ({"error": <message>}), as written for failed provider calls.
func (t *Trace) ResponseIsError() bool {
	m, ok := t.Response.(map[string]any)
	if !ok {
		return false
	}
	_, has := m["error"]
	return has
}

// BlockedBySafety reports whether the output safety gate flagged this call.
func (t *Trace) BlockedBySafety() bool {
	if t.Metadata == nil {
		return false
	}
	blocked, ok := t.Metadata["blocked_by_safety"].(bool)
	return ok && blocked
}

// RewardOr returns the assigned reward, or def when the trace is unscored.
func (t *Trace) RewardOr(def float64) float64 {
	if t.Reward == nil {
		return def
	}
	return *t.Reward
}

// newTraceID derives a unique id from the component name and a
// high-resolution timestamp, e.g. "Controller_20260825_143205_123456".
func newTraceID(component string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%06d", component, now.Format("20060102_150405"), now.Nanosecond()/1000)
}
