package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solace_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solace_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "path"})

	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solace_llm_requests_total",
		Help: "Total LLM requests",
	}, []string{"component", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solace_llm_request_duration_seconds",
		Help:    "LLM request duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"component"})

	ToolExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solace_tool_executions_total",
		Help: "Total tool executions by outcome",
	}, []string{"tool", "status"})

	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solace_plans_total",
		Help: "Total plans produced by the controller",
	}, []string{"source"})

	TracesWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solace_traces_written_total",
		Help: "Total traces persisted to disk",
	})

	TracesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solace_traces_active",
		Help: "Number of traces currently open",
	})

	RewardObserved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solace_reward_observed",
		Help:    "Distribution of combined rewards",
		Buckets: []float64{-1, -0.5, 0, 0.25, 0.5, 0.75, 0.9, 1},
	})

	OptimizerGenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solace_optimizer_generations_total",
		Help: "Total optimizer generations evaluated",
	})
)
