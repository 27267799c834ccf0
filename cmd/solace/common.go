package main

import (
	"context"
	"fmt"

	"github.com/mirelabs/solace/internal/agent"
	"github.com/mirelabs/solace/internal/config"
	"github.com/mirelabs/solace/internal/llm"
	"github.com/mirelabs/solace/internal/prompt"
	"github.com/mirelabs/solace/internal/reward"
	"github.com/mirelabs/solace/internal/trace"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// Shared global set by the root command's PersistentPreRunE
var cfg *config.Config

// newTraceStore opens the configured trace store.
func newTraceStore() (*trace.Store, error) {
	store, err := trace.NewStore(cfg.Trace.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace store: %w", err)
	}
	return store, nil
}

// newPromptRegistry opens the configured registry and guarantees the builtin
// baseline variants exist.
func newPromptRegistry() (*prompt.Registry, error) {
	reg, err := prompt.NewRegistry(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompt registry: %w", err)
	}
	if err := prompt.EnsureBaselines(reg); err != nil {
		return nil, fmt.Errorf("failed to register baseline prompts: %w", err)
	}
	return reg, nil
}

// newBaseClient selects the provider: Gemini when configured, otherwise the
// OpenAI-compatible endpoint. The returned cleanup is safe to defer.
func newBaseClient(ctx context.Context) (llm.Client, func(), error) {
	if cfg.IsGeminiConfigured() {
		client, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, func() { client.Close() }, nil
	}

	client := llm.NewOpenAIClient(cfg.LLM.URL, cfg.LLM.APIKey,
		llm.WithModel(cfg.LLM.Model),
		llm.WithDefaultMaxTokens(cfg.LLM.MaxTokens))
	return client, func() {}, nil
}

// newAgentStack wires the full per-session pipeline: traced planner and
// responder clients, tool registry, controller and engine.
func newAgentStack(ctx context.Context, store *trace.Store, prompts *prompt.Registry) (*agent.Controller, *agent.Engine, *agent.SessionMemory, func(), error) {
	base, cleanup, err := newBaseClient(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	plannerClient := llm.NewTracedClient(base, prompt.ComponentController, store, cfg.Trace.Enabled)
	responderClient := llm.NewTracedClient(base, prompt.ComponentResponder, store, cfg.Trace.Enabled)

	memory := agent.NewSessionMemory()
	registry := agent.NewRegistry(agent.BuiltinTools(responderClient, memory)...)
	controller := agent.NewController(plannerClient, registry, prompts)
	engine := agent.NewEngine(registry, prompts)

	return controller, engine, memory, cleanup, nil
}

// loadScoredTraces loads completed traces for the window and fills in any
// missing rewards with the combined reward function.
func loadScoredTraces(store *trace.Store, startDate, endDate, component string) ([]*trace.Trace, error) {
	traces, err := store.LoadTraces(startDate, endDate, component)
	if err != nil {
		return nil, fmt.Errorf("failed to load traces: %w", err)
	}
	return reward.Score(traces), nil
}

// maskSecret masks a secret string for display
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// boolStatus returns a status string for a boolean
func boolStatus(b bool) string {
	if b {
		return "configured"
	}
	return "not configured"
}
