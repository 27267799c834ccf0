package trace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "traces")
		store, err := NewStore(dir)
		require.NoError(t, err)
		assert.NotNil(t, store)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty dir is rejected", func(t *testing.T) {
		_, err := NewStore("")
		assert.Error(t, err)
	})
}

func TestStoreStartEndTrace(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	traceID := store.StartTrace("Controller", "plan this turn", map[string]any{"model": "test"})
	assert.Contains(t, traceID, "Controller_")
	assert.Equal(t, 1, store.ActiveCount())

	store.EndTrace(traceID, map[string]any{"choices": []any{}}, nil)
	assert.Equal(t, 0, store.ActiveCount())

	traces, err := store.LoadTraces("", "", "")
	require.NoError(t, err)
	require.Len(t, traces, 1)

	tr := traces[0]
	assert.Equal(t, traceID, tr.TraceID)
	assert.Equal(t, "Controller", tr.Component)
	assert.Equal(t, "plan this turn", tr.Prompt)
	require.NotNil(t, tr.TimestampEnd)
	require.NotNil(t, tr.LatencyMS)
	assert.GreaterOrEqual(t, *tr.LatencyMS, 0.0)
	assert.Nil(t, tr.Reward)
}

func TestStoreFileLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	traceID := store.StartTrace("MasterResponder", "respond", nil)
	store.EndTrace(traceID, "hello", nil)

	partition := time.Now().Format("20060102")
	path := filepath.Join(dir, partition, traceID+".json")
	_, err = os.Stat(path)
	assert.NoError(t, err, "trace should be stored under the date partition")
}

func TestStoreEndTraceUnknownID(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	// Unknown id must be a no-op, not a panic or an error file.
	store.EndTrace("Controller_19990101_000000_000000", "response", nil)

	traces, err := store.LoadTraces("", "", "")
	require.NoError(t, err)
	assert.Empty(t, traces)
}

func TestStoreEndTraceWithReward(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	failed := -1.0
	traceID := store.StartTrace("MasterResponder", "respond", nil)
	store.EndTrace(traceID, map[string]any{"error": "connection refused"}, &failed)

	traces, err := store.LoadTraces("", "", "")
	require.NoError(t, err)
	require.Len(t, traces, 1)
	require.NotNil(t, traces[0].Reward)
	assert.Equal(t, -1.0, *traces[0].Reward)
	assert.True(t, traces[0].ResponseIsError())
}

func TestLoadTracesFilters(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, component := range []string{"Controller", "MasterResponder", "Controller"} {
		id := store.StartTrace(component, "p", nil)
		store.EndTrace(id, "r", nil)
	}

	t.Run("component filter", func(t *testing.T) {
		traces, err := store.LoadTraces("", "", "Controller")
		require.NoError(t, err)
		assert.Len(t, traces, 2)
	})

	t.Run("date range excludes everything", func(t *testing.T) {
		traces, err := store.LoadTraces("19990101", "19990102", "")
		require.NoError(t, err)
		assert.Empty(t, traces)
	})

	t.Run("date range includes today", func(t *testing.T) {
		today := time.Now().Format("20060102")
		traces, err := store.LoadTraces(today, today, "")
		require.NoError(t, err)
		assert.Len(t, traces, 3)
	})
}

func TestLoadTracesSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	id := store.StartTrace("Controller", "p", nil)
	store.EndTrace(id, "r", nil)

	partition := filepath.Join(dir, time.Now().Format("20060102"))
	require.NoError(t, os.WriteFile(filepath.Join(partition, "broken.json"), []byte("{not json"), 0644))

	traces, err := store.LoadTraces("", "", "")
	require.NoError(t, err)
	assert.Len(t, traces, 1, "corrupt file should be skipped, not fail the load")
}

func TestGetTraceStats(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	t.Run("empty store", func(t *testing.T) {
		stats, err := store.GetTraceStats()
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalTraces)
		assert.Empty(t, stats.Components)
	})

	for i := 0; i < 2; i++ {
		id := store.StartTrace("Controller", "p", nil)
		store.EndTrace(id, "r", nil)
	}
	id := store.StartTrace("MasterResponder", "p", nil)
	store.EndTrace(id, "r", nil)

	t.Run("counts and latency", func(t *testing.T) {
		stats, err := store.GetTraceStats()
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalTraces)
		assert.Equal(t, 2, stats.Components["Controller"])
		assert.Equal(t, 1, stats.Components["MasterResponder"])
		assert.GreaterOrEqual(t, stats.AvgLatencyMS, 0.0)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := store.GetTraceStats()
		require.NoError(t, err)
		second, err := store.GetTraceStats()
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestNewTraceID(t *testing.T) {
	ts := time.Date(2026, 8, 25, 14, 32, 5, 123456000, time.UTC)
	id := newTraceID("Controller", ts)
	assert.Equal(t, "Controller_20260825_143205_123456", id)
}
