package llm

import (
	"context"
	"time"

	"github.com/mirelabs/solace/internal/adapters/metrics"
	"github.com/mirelabs/solace/internal/trace"
)

// TracedClient is a transparent proxy around a Client that records every call
// as a trace. It holds a reference to the wrapped client rather than
// embedding provider specifics, so it is substitutable anywhere a Client is
// used. With tracing disabled every call passes straight through.
type TracedClient struct {
	client    Client
	component string
	store     *trace.Store
	enabled   bool
}

// NewTracedClient wraps client so that calls made on behalf of the named
// component are traced into store.
func NewTracedClient(client Client, component string, store *trace.Store, enabled bool) *TracedClient {
	return &TracedClient{
		client:    client,
		component: component,
		store:     store,
		enabled:   enabled && store != nil,
	}
}

func (c *TracedClient) Model() string { return c.client.Model() }

// Unwrap returns the wrapped client.
func (c *TracedClient) Unwrap() Client { return c.client }

// Generate forwards to the wrapped client. When tracing is enabled it opens a
// trace first and completes it with the response (reward left unscored) or,
// on provider failure, with a synthetic error record and reward -1.0 before
// re-raising the error unchanged. Trace capture never swallows errors.
func (c *TracedClient) Generate(ctx context.Context, prompt string, opts ...CallOption) (any, error) {
	if !c.enabled {
		return c.client.Generate(ctx, prompt, opts...)
	}

	o := resolveCallOptions(opts)
	metadata := map[string]any{
		"model":        c.client.Model(),
		"max_tokens":   o.MaxTokens,
		"temperature":  o.Temperature,
		"has_messages": len(o.Messages) > 0,
	}

	traceID := c.store.StartTrace(c.component, prompt, metadata)
	start := time.Now()

	resp, err := c.client.Generate(ctx, prompt, opts...)
	if err != nil {
		failed := -1.0
		c.store.EndTrace(traceID, map[string]any{"error": err.Error()}, &failed)
		metrics.LLMRequestsTotal.WithLabelValues(c.component, "error").Inc()
		return nil, err
	}

	c.store.EndTrace(traceID, resp, nil)
	metrics.LLMRequestsTotal.WithLabelValues(c.component, "ok").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.component).Observe(time.Since(start).Seconds())
	return resp, nil
}
