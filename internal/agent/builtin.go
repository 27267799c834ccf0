package agent

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mirelabs/solace/internal/domain"
	"github.com/mirelabs/solace/internal/llm"
)

// baseTool carries the name/description pair shared by every built-in tool.
type baseTool struct {
	name        string
	description string
}

func (t baseTool) Name() string        { return t.name }
func (t baseTool) Description() string { return t.description }

var emotionKeywords = map[string][]string{
	"sadness":      {"sad", "down", "depressed", "crying", "miserable", "lonely"},
	"anxiety":      {"anxious", "worried", "nervous", "panic", "scared", "overwhelmed"},
	"anger":        {"angry", "furious", "frustrated", "mad", "irritated"},
	"hopelessness": {"hopeless", "pointless", "give up", "worthless", "empty"},
	"joy":          {"happy", "excited", "grateful", "proud", "relieved"},
}

var positiveWords = []string{"good", "great", "better", "happy", "grateful", "hopeful", "calm", "proud"}
var negativeWords = []string{"bad", "worse", "terrible", "awful", "sad", "angry", "anxious", "hopeless", "alone"}

// detectEmotions returns matched emotion labels in deterministic order plus a
// crude polarity score in [-1, 1].
func detectEmotions(text string) (emotions []string, score float64) {
	lower := strings.ToLower(text)

	labels := make([]string, 0, len(emotionKeywords))
	for label := range emotionKeywords {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		for _, kw := range emotionKeywords[label] {
			if strings.Contains(lower, kw) {
				emotions = append(emotions, label)
				break
			}
		}
	}

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	if pos+neg > 0 {
		score = float64(pos-neg) / float64(pos+neg)
	}
	return emotions, score
}

// EmotionTool detects emotions in the user message.
type EmotionTool struct{ baseTool }

func NewEmotionTool() *EmotionTool {
	return &EmotionTool{baseTool{"EmotionTool", "Detect emotions in user message"}}
}

func (t *EmotionTool) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	text, _ := input["text"].(string)
	emotions, score := detectEmotions(text)

	primary := ""
	if len(emotions) > 0 {
		primary = emotions[0]
	}
	urgency := "low"
	for _, e := range emotions {
		if e == "hopelessness" {
			urgency = "high"
		} else if urgency == "low" && (e == "sadness" || e == "anxiety") {
			urgency = "medium"
		}
	}

	return map[string]any{
		"emotions":        emotions,
		"primary_emotion": primary,
		"urgency":         urgency,
		"sentiment_score": score,
	}, nil
}

// SentimentTool labels sentiment polarity with a score.
type SentimentTool struct{ baseTool }

func NewSentimentTool() *SentimentTool {
	return &SentimentTool{baseTool{"SentimentTool", "Analyze sentiment polarity and score"}}
}

func (t *SentimentTool) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	text, _ := input["text"].(string)
	_, score := detectEmotions(text)

	sentiment := "neutral"
	if score > 0.2 {
		sentiment = "positive"
	} else if score < -0.2 {
		sentiment = "negative"
	}

	return map[string]any{
		"sentiment": sentiment,
		"score":     score,
	}, nil
}

// SessionMemory is the in-process per-session conversation memory the memory
// tools read and write.
type SessionMemory struct {
	mu      sync.Mutex
	summary string
	recent  []llm.Message
}

func NewSessionMemory() *SessionMemory {
	return &SessionMemory{}
}

func (m *SessionMemory) AddMessage(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent = append(m.recent, llm.Message{Role: role, Content: content})
}

func (m *SessionMemory) SetSummary(summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = summary
}

func (m *SessionMemory) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary
}

func (m *SessionMemory) Recent(n int) []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n >= len(m.recent) {
		n = len(m.recent)
	}
	out := make([]llm.Message, n)
	copy(out, m.recent[len(m.recent)-n:])
	return out
}

// MemoryReadTool fetches the session summary and recent history.
type MemoryReadTool struct {
	baseTool
	memory *SessionMemory
}

func NewMemoryReadTool(memory *SessionMemory) *MemoryReadTool {
	return &MemoryReadTool{baseTool{"MemoryReadTool", "Fetch sanitized session summary and history"}, memory}
}

func (t *MemoryReadTool) Execute(_ context.Context, _ map[string]any) (map[string]any, error) {
	recent := t.memory.Recent(5)
	history := make([]map[string]any, 0, len(recent))
	for _, m := range recent {
		history = append(history, map[string]any{"role": m.Role, "content": m.Content})
	}
	return map[string]any{
		"session_summary": t.memory.Summary(),
		"recent_history":  history,
	}, nil
}

// MemoryWriteTool updates the session summary.
type MemoryWriteTool struct {
	baseTool
	memory *SessionMemory
}

func NewMemoryWriteTool(memory *SessionMemory) *MemoryWriteTool {
	return &MemoryWriteTool{baseTool{"MemoryWriteTool", "Update session summary"}, memory}
}

func (t *MemoryWriteTool) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	update, _ := input["summary_update"].(string)
	if update == "" {
		return map[string]any{"status": "failed", "reason": "No summary update provided"}, nil
	}
	t.memory.SetSummary(update)
	return map[string]any{"status": "success", "updated_summary": update}, nil
}

// PatternDetectorTool identifies recurring topics across recent messages.
type PatternDetectorTool struct {
	baseTool
	memory *SessionMemory
}

func NewPatternDetectorTool(memory *SessionMemory) *PatternDetectorTool {
	return &PatternDetectorTool{baseTool{"PatternDetectorTool", "Identify conversation patterns and loops"}, memory}
}

func (t *PatternDetectorTool) Execute(_ context.Context, _ map[string]any) (map[string]any, error) {
	counts := make(map[string]int)
	for _, m := range t.memory.Recent(0) {
		emotions, _ := detectEmotions(m.Content)
		for _, e := range emotions {
			counts[e]++
		}
	}

	topics := make([]string, 0, len(counts))
	var patterns []string
	for topic, n := range counts {
		topics = append(topics, topic)
		if n >= 3 {
			patterns = append(patterns, "recurring "+topic)
		}
	}
	sort.Strings(topics)
	sort.Strings(patterns)

	return map[string]any{
		"patterns": patterns,
		"topics":   topics,
	}, nil
}

var symptomIndicators = map[string]string{
	"can't sleep":   "sleep disturbance",
	"no energy":     "fatigue",
	"no appetite":   "appetite change",
	"can't focus":   "concentration difficulty",
	"worthless":     "negative self-worth",
	"hopeless":      "hopelessness",
	"panic":         "panic symptoms",
	"restless":      "restlessness",
	"on edge":       "persistent worry",
	"lost interest": "anhedonia",
}

// AssessmentTool surfaces symptom and severity indicators from the message.
type AssessmentTool struct{ baseTool }

func NewAssessmentTool() *AssessmentTool {
	return &AssessmentTool{baseTool{"AssessmentTool", "Run PHQ-9/GAD-7 or other validated assessments"}}
}

func (t *AssessmentTool) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	text, _ := input["text"].(string)
	lower := strings.ToLower(text)

	var symptoms []string
	for indicator, symptom := range symptomIndicators {
		if strings.Contains(lower, indicator) {
			symptoms = append(symptoms, symptom)
		}
	}
	sort.Strings(symptoms)

	var severity []string
	if strings.Contains(lower, "every day") || strings.Contains(lower, "all the time") {
		severity = append(severity, "high frequency")
	}

	var relevance []string
	for _, s := range symptoms {
		switch s {
		case "hopelessness", "anhedonia", "negative self-worth":
			relevance = append(relevance, "PHQ-9")
		case "panic symptoms", "persistent worry", "restlessness":
			relevance = append(relevance, "GAD-7")
		}
	}
	sort.Strings(relevance)

	return map[string]any{
		"symptoms":             symptoms,
		"severity_indicators":  severity,
		"assessment_relevance": relevance,
	}, nil
}

// InterventionSelectorTool recommends therapeutic techniques for a situation.
type InterventionSelectorTool struct{ baseTool }

func NewInterventionSelectorTool() *InterventionSelectorTool {
	return &InterventionSelectorTool{baseTool{"InterventionSelectorTool", "Recommend therapeutic techniques based on context"}}
}

func (t *InterventionSelectorTool) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	situation, _ := input["situation"].(string)
	situation = strings.ToLower(situation)

	var recommendations []map[string]any
	var rationale string
	switch {
	case strings.Contains(situation, "anxiety") || strings.Contains(situation, "panic"):
		recommendations = append(recommendations,
			map[string]any{"name": "grounding_technique", "priority": "high"},
			map[string]any{"name": "deep_breathing", "priority": "high"})
		rationale = "Anxiety detected, suggesting grounding and breathing."
	case strings.Contains(situation, "sadness") || strings.Contains(situation, "depression"):
		recommendations = append(recommendations,
			map[string]any{"name": "behavioral_activation", "priority": "medium"},
			map[string]any{"name": "validation", "priority": "high"})
		rationale = "Sadness detected, prioritizing validation."
	default:
		recommendations = append(recommendations,
			map[string]any{"name": "active_listening", "priority": "high"})
		rationale = "General support situation."
	}

	return map[string]any{
		"recommended_techniques": recommendations,
		"rationale":              rationale,
	}, nil
}

var copingStrategies = map[string][]string{
	"anxiety": {
		"5-4-3-2-1 grounding: name five things you can see, four you can touch, three you can hear",
		"Box breathing: inhale four counts, hold four, exhale four, hold four",
	},
	"sadness": {
		"Schedule one small pleasant activity for today, however minor",
		"Write down the feeling without judging it",
	},
	"anger": {
		"Step away from the trigger for ten minutes before responding",
		"Channel the energy into a brisk walk or physical task",
	},
}

// TherapyTool suggests coping strategies for the detected topic.
type TherapyTool struct{ baseTool }

func NewTherapyTool() *TherapyTool {
	return &TherapyTool{baseTool{"TherapyTool", "Consult a therapy expert for coping strategies"}}
}

func (t *TherapyTool) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	topic, _ := input["topic"].(string)
	if topic == "" {
		if text, _ := input["text"].(string); text != "" {
			if emotions, _ := detectEmotions(text); len(emotions) > 0 {
				topic = emotions[0]
			}
		}
	}

	strategies, ok := copingStrategies[strings.ToLower(topic)]
	if !ok {
		strategies = []string{"Practice naming the feeling out loud and letting it be present without fixing it"}
	}

	return map[string]any{
		"topic":      topic,
		"strategies": strategies,
	}, nil
}

// ResourceTool lists professional help options.
type ResourceTool struct{ baseTool }

func NewResourceTool() *ResourceTool {
	return &ResourceTool{baseTool{"ResourceTool", "Consult a resource expert for professional help options"}}
}

func (t *ResourceTool) Execute(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{
		"resources": []map[string]any{
			{"name": "988 Suicide & Crisis Lifeline", "contact": "call or text 988", "type": "crisis"},
			{"name": "Crisis Text Line", "contact": "text HOME to 741741", "type": "crisis"},
			{"name": "Licensed therapist directory", "contact": "https://www.psychologytoday.com", "type": "ongoing"},
		},
	}, nil
}

// MasterResponderTool generates the final reply from the aggregated context
// block. It is the designated final action of every plan.
type MasterResponderTool struct {
	baseTool
	client llm.Client
}

func NewMasterResponderTool(client llm.Client) *MasterResponderTool {
	return &MasterResponderTool{baseTool{"MasterResponderTool", "Generate final supportive response"}, client}
}

func (t *MasterResponderTool) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	promptContext, _ := input["prompt_context"].(string)
	if promptContext == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidToolInput, "prompt_context is required")
	}

	resp, err := t.client.Generate(ctx, promptContext,
		llm.WithMaxTokens(150),
		llm.WithTemperature(0.7))
	if err != nil {
		return nil, err
	}

	return map[string]any{"reply_text": llm.ExtractText(resp)}, nil
}

// BuiltinTools assembles the full tool set. responder is the model client the
// final response tool speaks through (typically a traced client for the
// MasterResponder component).
func BuiltinTools(responder llm.Client, memory *SessionMemory) []Tool {
	return []Tool{
		NewEmotionTool(),
		NewSentimentTool(),
		NewMemoryReadTool(memory),
		NewMemoryWriteTool(memory),
		NewPatternDetectorTool(memory),
		NewAssessmentTool(),
		NewInterventionSelectorTool(),
		NewTherapyTool(),
		NewResourceTool(),
		NewMasterResponderTool(responder),
	}
}
