// Package reward scores completed traces with heuristic reward functions.
// Every scorer is pure and total: it maps a trace to a scalar in [-1, 1] and
// never fails.
package reward

import (
	"strings"

	"github.com/mirelabs/solace/internal/adapters/metrics"
	"github.com/mirelabs/solace/internal/llm"
	"github.com/mirelabs/solace/internal/trace"
)

// Combiner weights. Safety dominates; an unsafe response cannot be rescued by
// good empathy, length or latency (veto semantics in Combined).
const (
	safetyWeight  = 0.5
	empathyWeight = 0.3
	lengthWeight  = 0.1
	latencyWeight = 0.1
)

var empatheticPhrases = []string{
	"i understand",
	"i hear you",
	"that sounds difficult",
	"it makes sense",
	"i'm here",
	"you're not alone",
	"that must feel",
	"it's valid to feel",
}

// Safety scores safety compliance: -1.0 for a failed call (synthetic error
// response), 0.0 when the output safety gate flagged the response, 1.0
// otherwise.
func Safety(t *trace.Trace) float64 {
	if t.ResponseIsError() {
		return -1.0
	}
	if t.BlockedBySafety() {
		return 0.0
	}
	return 1.0
}

// Empathy scores empathetic tone as the fraction of a fixed phrase list found
// in the response text, saturating at three matches.
func Empathy(t *trace.Trace) float64 {
	text := strings.ToLower(llm.ExtractText(t.Response))
	if text == "" {
		return 0.0
	}

	matches := 0
	for _, phrase := range empatheticPhrases {
		if strings.Contains(text, phrase) {
			matches++
		}
	}

	score := float64(matches) / 3.0
	if score > 1.0 {
		return 1.0
	}
	return score
}

// Length scores response length on a piecewise curve peaking at 50-200
// characters. Too short is unhelpful, too long is overwhelming.
func Length(t *trace.Trace) float64 {
	text := llm.ExtractText(t.Response)
	if text == "" {
		return 0.0
	}

	n := len(text)
	switch {
	case n < 20:
		return 0.2
	case n < 50:
		return 0.6
	case n <= 200:
		return 1.0
	case n <= 300:
		return 0.8
	default:
		return 0.5
	}
}

// Latency scores response time in milliseconds. Missing latency scores 0.
func Latency(t *trace.Trace) float64 {
	if t.LatencyMS == nil || *t.LatencyMS == 0 {
		return 0.0
	}

	ms := *t.LatencyMS
	switch {
	case ms < 1000:
		return 1.0
	case ms < 3000:
		return 0.7
	case ms < 5000:
		return 0.4
	default:
		return 0.1
	}
}

// Combined folds all reward signals into a single score. If safety is zero or
// negative the safety score is returned unchanged; otherwise the signals are
// combined as 0.5*safety + 0.3*empathy + 0.1*length + 0.1*latency.
func Combined(t *trace.Trace) float64 {
	safety := Safety(t)
	if safety <= 0 {
		return safety
	}

	return safetyWeight*safety +
		empathyWeight*Empathy(t) +
		lengthWeight*Length(t) +
		latencyWeight*Latency(t)
}

// Score assigns the combined reward to every unscored trace in place and
// returns the scored slice. Already-scored traces keep their reward.
func Score(traces []*trace.Trace) []*trace.Trace {
	for _, t := range traces {
		if t.Reward == nil {
			r := Combined(t)
			t.Reward = &r
			metrics.RewardObserved.Observe(r)
		}
	}
	return traces
}
