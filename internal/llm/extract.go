package llm

import (
	"fmt"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
)

// ExtractText pulls the assistant text out of a provider response payload.
// Two shapes are known: choices[0].message.content (OpenAI-compatible APIs)
// and candidates[0].content.parts[0].text (Gemini). Payloads loaded back from
// trace files arrive as generic maps and are matched by their distinguishing
// key. Anything else degrades to a string cast. Total: never returns an error.
func ExtractText(resp any) string {
	switch r := resp.(type) {
	case nil:
		return ""
	case string:
		return r
	case openai.ChatCompletionResponse:
		return openAIText(&r)
	case *openai.ChatCompletionResponse:
		return openAIText(r)
	case *genai.GenerateContentResponse:
		return geminiText(r)
	case map[string]any:
		if text, ok := mapChoicesText(r); ok {
			return text
		}
		if text, ok := mapCandidatesText(r); ok {
			return text
		}
		return fmt.Sprintf("%v", r)
	default:
		return fmt.Sprintf("%v", r)
	}
}

// IsErrorPayload reports whether a response payload is a synthetic error
// record of the form {"error": <message>}.
func IsErrorPayload(resp any) bool {
	m, ok := resp.(map[string]any)
	if !ok {
		return false
	}
	_, has := m["error"]
	return has
}

func openAIText(r *openai.ChatCompletionResponse) string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

func geminiText(r *genai.GenerateContentResponse) string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	content := r.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return ""
	}
	if text, ok := content.Parts[0].(genai.Text); ok {
		return string(text)
	}
	return ""
}

func mapChoicesText(m map[string]any) (string, bool) {
	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := message["content"].(string)
	return content, ok
}

func mapCandidatesText(m map[string]any) (string, bool) {
	candidates, ok := m["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return "", false
	}
	candidate, ok := candidates[0].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := candidate["content"].(map[string]any)
	if !ok {
		return "", false
	}
	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return "", false
	}
	part, ok := parts[0].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := part["text"].(string)
	return text, ok
}
