package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirelabs/solace/internal/trace"
)

// stubClient is a scriptable Client for proxy tests.
type stubClient struct {
	response any
	err      error
	calls    int
}

func (s *stubClient) Generate(ctx context.Context, prompt string, opts ...CallOption) (any, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubClient) Model() string { return "stub-model" }

func TestTracedClientSuccess(t *testing.T) {
	store, err := trace.NewStore(t.TempDir())
	require.NoError(t, err)

	stub := &stubClient{response: "I hear you."}
	client := NewTracedClient(stub, "MasterResponder", store, true)

	resp, err := client.Generate(context.Background(), "respond to the user")
	require.NoError(t, err)
	assert.Equal(t, "I hear you.", resp)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 0, store.ActiveCount())

	traces, err := store.LoadTraces("", "", "MasterResponder")
	require.NoError(t, err)
	require.Len(t, traces, 1)

	tr := traces[0]
	assert.Equal(t, "respond to the user", tr.Prompt)
	assert.Equal(t, "I hear you.", tr.Response)
	assert.Nil(t, tr.Reward, "reward is scored offline, not at capture time")
	assert.Equal(t, "stub-model", tr.Metadata["model"])
}

func TestTracedClientError(t *testing.T) {
	store, err := trace.NewStore(t.TempDir())
	require.NoError(t, err)

	provErr := errors.New("connection refused")
	stub := &stubClient{err: provErr}
	client := NewTracedClient(stub, "Controller", store, true)

	resp, err := client.Generate(context.Background(), "plan")
	assert.Nil(t, resp)
	assert.Same(t, provErr, err, "provider error is re-raised unchanged")

	traces, lerr := store.LoadTraces("", "", "Controller")
	require.NoError(t, lerr)
	require.Len(t, traces, 1)

	tr := traces[0]
	assert.True(t, tr.ResponseIsError())
	require.NotNil(t, tr.Reward)
	assert.Equal(t, -1.0, *tr.Reward)
}

func TestTracedClientDisabled(t *testing.T) {
	store, err := trace.NewStore(t.TempDir())
	require.NoError(t, err)

	stub := &stubClient{response: "ok"}
	client := NewTracedClient(stub, "Controller", store, false)

	_, err = client.Generate(context.Background(), "plan")
	require.NoError(t, err)

	traces, err := store.LoadTraces("", "", "")
	require.NoError(t, err)
	assert.Empty(t, traces, "disabled tracing records nothing")
}

func TestTracedClientNilStore(t *testing.T) {
	stub := &stubClient{response: "ok"}
	client := NewTracedClient(stub, "Controller", nil, true)

	resp, err := client.Generate(context.Background(), "plan")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestTracedClientUnwrap(t *testing.T) {
	stub := &stubClient{}
	client := NewTracedClient(stub, "Controller", nil, false)
	assert.Equal(t, stub, client.Unwrap())
	assert.Equal(t, "stub-model", client.Model())
}
