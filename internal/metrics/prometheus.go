package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusOnce     sync.Once
	prometheusInstance *PrometheusCollector
)

// PrometheusCollector provides Prometheus metrics for the server.
type PrometheusCollector struct {
	// MCP Tool metrics
	toolCallsTotal   *prometheus.CounterVec
	toolErrorsTotal  *prometheus.CounterVec
	toolDurationSecs *prometheus.HistogramVec

	// Rate limit metrics
	rateLimitHitsTotal   *prometheus.CounterVec
	rateLimitChecksTotal prometheus.Counter

	// Game metrics
	gamesStartedTotal  *prometheus.CounterVec
	gamesFinishedTotal prometheus.Counter
	activeGames        prometheus.Gauge
	movesTotal         *prometheus.CounterVec
	moveRejectsTotal   *prometheus.CounterVec
	capturesTotal      *prometheus.CounterVec

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Chain cache metrics
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
	cacheSize        prometheus.Gauge
	cacheItems       prometheus.Gauge
}

// NewPrometheusCollector creates a new Prometheus metrics collector (singleton).
func NewPrometheusCollector() *PrometheusCollector {
	prometheusOnce.Do(func() {
		prometheusInstance = &PrometheusCollector{
			// MCP Tool metrics
			toolCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enjoygo_tool_calls_total",
					Help: "Total number of MCP tool calls",
				},
				[]string{"tool", "status"},
			),
			toolErrorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enjoygo_tool_errors_total",
					Help: "Total number of MCP tool errors",
				},
				[]string{"tool", "error_type"},
			),
			toolDurationSecs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "enjoygo_tool_duration_seconds",
					Help:    "Duration of MCP tool calls in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),

			// Rate limit metrics
			rateLimitHitsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enjoygo_rate_limit_hits_total",
					Help: "Total number of rate limit hits",
				},
				[]string{"client", "tool"},
			),
			rateLimitChecksTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "enjoygo_rate_limit_checks_total",
					Help: "Total number of rate limit checks",
				},
			),

			// Game metrics
			gamesStartedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enjoygo_games_started_total",
					Help: "Total number of games started",
				},
				[]string{"board_size"},
			),
			gamesFinishedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "enjoygo_games_finished_total",
					Help: "Total number of games finished by two passes",
				},
			),
			activeGames: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "enjoygo_active_games",
					Help: "Number of games currently held in memory",
				},
			),
			movesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enjoygo_moves_total",
					Help: "Total number of accepted moves",
				},
				[]string{"color", "kind"},
			),
			moveRejectsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enjoygo_move_rejects_total",
					Help: "Total number of rejected moves",
				},
				[]string{"reason"},
			),
			capturesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enjoygo_captures_total",
					Help: "Total number of stones captured",
				},
				[]string{"color"},
			),

			// HTTP metrics
			httpRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "enjoygo_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			httpRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "enjoygo_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),

			// Chain cache metrics
			cacheHitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "enjoygo_cache_hits_total",
					Help: "Total number of chain cache hits",
				},
			),
			cacheMissesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "enjoygo_cache_misses_total",
					Help: "Total number of chain cache misses",
				},
			),
			cacheSize: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "enjoygo_cache_size_bytes",
					Help: "Current chain cache size in bytes",
				},
			),
			cacheItems: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "enjoygo_cache_items",
					Help: "Current number of items in the chain cache",
				},
			),
		}
	})
	return prometheusInstance
}

// RecordToolCall records a tool call metric.
func (p *PrometheusCollector) RecordToolCall(tool, status string, durationSecs float64) {
	p.toolCallsTotal.WithLabelValues(tool, status).Inc()
	p.toolDurationSecs.WithLabelValues(tool).Observe(durationSecs)

	if status == "error" {
		p.toolErrorsTotal.WithLabelValues(tool, "general").Inc()
	}
}

// RecordRateLimit records a rate limit event.
func (p *PrometheusCollector) RecordRateLimit(client, tool string, hit bool) {
	p.rateLimitChecksTotal.Inc()
	if hit {
		p.rateLimitHitsTotal.WithLabelValues(client, tool).Inc()
	}
}

// RecordGameStarted records a new game and its board size.
func (p *PrometheusCollector) RecordGameStarted(boardSize string) {
	p.gamesStartedTotal.WithLabelValues(boardSize).Inc()
}

// RecordGameFinished records a game ending by two consecutive passes.
func (p *PrometheusCollector) RecordGameFinished() {
	p.gamesFinishedTotal.Inc()
}

// SetActiveGames sets the number of games currently held.
func (p *PrometheusCollector) SetActiveGames(count float64) {
	p.activeGames.Set(count)
}

// RecordMove records an accepted move. Kind is "placement" or "pass".
func (p *PrometheusCollector) RecordMove(color, kind string) {
	p.movesTotal.WithLabelValues(color, kind).Inc()
}

// RecordMoveReject records a rejected move by reason.
func (p *PrometheusCollector) RecordMoveReject(reason string) {
	p.moveRejectsTotal.WithLabelValues(reason).Inc()
}

// RecordCaptures records stones captured by the given color.
func (p *PrometheusCollector) RecordCaptures(color string, count int) {
	if count > 0 {
		p.capturesTotal.WithLabelValues(color).Add(float64(count))
	}
}

// RecordHTTPRequest records an HTTP request.
func (p *PrometheusCollector) RecordHTTPRequest(method, path, status string, durationSecs float64) {
	p.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(durationSecs)
}

// RecordCacheHit records a chain cache hit.
func (p *PrometheusCollector) RecordCacheHit() {
	p.cacheHitsTotal.Inc()
}

// RecordCacheMiss records a chain cache miss.
func (p *PrometheusCollector) RecordCacheMiss() {
	p.cacheMissesTotal.Inc()
}

// SetCacheStats sets the current chain cache statistics.
func (p *PrometheusCollector) SetCacheStats(items, sizeBytes float64) {
	p.cacheItems.Set(items)
	p.cacheSize.Set(sizeBytes)
}
