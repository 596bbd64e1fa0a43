package utilities

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Duração das requisições HTTP (segundos)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)

	// Latência de cada tentativa contra a API de IA (milissegundos)
	AICallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_ai_call_latency_ms",
			Help:    "Generative API call latency per attempt in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 10),
		},
		[]string{"outcome"},
	)

	// Resultado de cada tentativa: success, rate_limited, http_error, network_error
	AICallAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_ai_call_attempts_total",
			Help: "Generative API call attempts by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "todo_snapshots_delivered_total",
			Help: "Collection snapshots reconciled and delivered to views",
		},
	)

	SubscriptionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "todo_subscription_errors_total",
			Help: "Errors reported by snapshot subscriptions",
		},
	)

	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "todo_active_subscriptions",
			Help: "Live list subscriptions currently active",
		},
	)

	// Escritas na coleção: create, update, toggle, delete, delete_all
	TodoWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_writes_total",
			Help: "Writes issued against the shared todo collection",
		},
		[]string{"operation", "status"},
	)
)

// RecordHTTPRequestDuration registra a duração de uma requisição HTTP
func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordAICall registra o resultado e a latência de uma tentativa contra a API de IA
func RecordAICall(outcome string, duration time.Duration) {
	AICallAttempts.WithLabelValues(outcome).Inc()
	AICallLatency.WithLabelValues(outcome).Observe(float64(duration.Milliseconds()))
}

// RecordTodoWrite registra uma escrita na coleção compartilhada
func RecordTodoWrite(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	TodoWrites.WithLabelValues(operation, status).Inc()
}
