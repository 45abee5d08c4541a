// Package metrics owns the Prometheus collectors shared by the fintrack
// binaries. Collectors are registered on the default registry once; a second
// registration of an equal collector reuses the existing one.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var once sync.Once

var (
	rpcTotal    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	jobsTotal   *prometheus.CounterVec
)

func registerCounterVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		slog.Warn("prometheus counter register failed", "error", err)
	}
	return c
}

func registerHistogramVec(c *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		slog.Warn("prometheus histogram register failed", "error", err)
	}
	return c
}

func newRPCTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fintrack",
		Subsystem: "auth",
		Name:      "rpc_total",
		Help:      "Auth RPCs by method and status code.",
	}, []string{"method", "code"})
}

func Init() {
	once.Do(func() {
		rpcTotal = registerCounterVec(newRPCTotal())

		rpcDuration = registerHistogramVec(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fintrack",
			Subsystem: "auth",
			Name:      "rpc_duration_seconds",
			Help:      "Auth RPC latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}))

		jobsTotal = registerCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "notifier",
			Name:      "jobs_total",
			Help:      "Notification jobs by kind and result.",
		}, []string{"kind", "result"}))
	})
}

func ObserveRPC(method, code string, d time.Duration) {
	if rpcTotal == nil {
		return
	}
	rpcTotal.WithLabelValues(method, code).Inc()
	rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

func ObserveJob(kind, result string) {
	if jobsTotal == nil {
		return
	}
	jobsTotal.WithLabelValues(kind, result).Inc()
}

// UnaryServerInterceptor records every unary call, including calls rejected
// by later interceptors.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	Init()
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		ObserveRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
