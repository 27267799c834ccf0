package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "", ExtractText(nil))
	})

	t.Run("string passthrough", func(t *testing.T) {
		assert.Equal(t, "hello", ExtractText("hello"))
	})

	t.Run("openai response", func(t *testing.T) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "I hear you."}},
			},
		}
		assert.Equal(t, "I hear you.", ExtractText(resp))
		assert.Equal(t, "I hear you.", ExtractText(&resp))
	})

	t.Run("openai response with no choices", func(t *testing.T) {
		assert.Equal(t, "", ExtractText(openai.ChatCompletionResponse{}))
	})

	t.Run("gemini response", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("That sounds difficult.")}}},
			},
		}
		assert.Equal(t, "That sounds difficult.", ExtractText(resp))
	})

	t.Run("gemini response with no candidates", func(t *testing.T) {
		assert.Equal(t, "", ExtractText(&genai.GenerateContentResponse{}))
	})

	t.Run("map with choices shape", func(t *testing.T) {
		// Shape a trace file round-trips through JSON.
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": "reloaded text"},
				},
			},
		}
		assert.Equal(t, "reloaded text", ExtractText(payload))
	})

	t.Run("map with candidates shape", func(t *testing.T) {
		payload := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{map[string]any{"text": "gemini reloaded"}},
					},
				},
			},
		}
		assert.Equal(t, "gemini reloaded", ExtractText(payload))
	})

	t.Run("unknown map falls back to formatting", func(t *testing.T) {
		payload := map[string]any{"error": "timeout"}
		assert.Equal(t, "map[error:timeout]", ExtractText(payload))
	})
}

func TestIsErrorPayload(t *testing.T) {
	assert.True(t, IsErrorPayload(map[string]any{"error": "timeout"}))
	assert.False(t, IsErrorPayload(map[string]any{"choices": []any{}}))
	assert.False(t, IsErrorPayload("error"))
	assert.False(t, IsErrorPayload(nil))
}
