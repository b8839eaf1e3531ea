// Package metrics はダッシュボードのPrometheusメトリクスを定義する。
//
// コレクタはpromautoでデフォルトレジストリに一度だけ登録される。
// /metrics エンドポイントは Handler で公開する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sinistra_upstream_requests_total",
		Help: "Number of requests sent to the BGS API",
	}, []string{"method", "endpoint", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sinistra_upstream_request_duration_seconds",
		Help:    "Latency of requests sent to the BGS API",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "endpoint"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sinistra_http_requests_total",
		Help: "Number of dashboard HTTP requests by route and status",
	}, []string{"route", "status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sinistra_login_attempts_total",
		Help: "Number of login attempts by result",
	}, []string{"result"})

	panics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sinistra_http_panics_total",
		Help: "Number of handler panics recovered by route",
	}, []string{"route"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sinistra_sessions_active",
		Help: "Number of sessions held by the in-memory store",
	})

	redisPoolHits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sinistra_redis_pool_hits",
		Help: "Number of times a connection was found in the pool",
	})
	redisPoolMisses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sinistra_redis_pool_misses",
		Help: "Number of times a connection was not found in the pool",
	})
	redisPoolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sinistra_redis_pool_total_conns",
		Help: "Number of total connections in the pool",
	})
	redisPoolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sinistra_redis_pool_idle_conns",
		Help: "Number of idle connections in the pool",
	})
)

// ObserveUpstream はBGS APIへのリクエスト1件の結果と所要時間を記録する。
func ObserveUpstream(method, endpoint, outcome string, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(method, endpoint, outcome).Inc()
	upstreamDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// ObserveHTTP はダッシュボードへのリクエスト1件を記録する。
// routeにはgin のルートパターン（例: /objectives/:id/delete）を渡す。
func ObserveHTTP(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveLogin はログイン試行の結果を記録する。
// resultは "success"・"rejected"・"error"・"rate_limited" のいずれか。
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// ObservePanic はハンドラのパニックを記録する。
func ObservePanic(route string) {
	if route == "" {
		route = "unmatched"
	}
	panics.WithLabelValues(route).Inc()
}

// SetActiveSessions はメモリ上のセッション数を設定する。
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// RedisPoolStats はRedisコネクションプールの統計値。
type RedisPoolStats struct {
	// Hits はプールからコネクションを再利用できた回数。
	Hits uint32
	// Misses はプールにコネクションがなかった回数。
	Misses uint32
	// TotalConns はコネクションの総数。
	TotalConns uint32
	// IdleConns はアイドル状態のコネクション数。
	IdleConns uint32
}

// SetRedisPoolStats はRedisコネクションプールの統計値を記録する。
func SetRedisPoolStats(s RedisPoolStats) {
	redisPoolHits.Set(float64(s.Hits))
	redisPoolMisses.Set(float64(s.Misses))
	redisPoolTotalConns.Set(float64(s.TotalConns))
	redisPoolIdleConns.Set(float64(s.IdleConns))
}

// Handler はPrometheus形式でメトリクスを公開するハンドラを返す。
func Handler() http.Handler {
	return promhttp.Handler()
}
